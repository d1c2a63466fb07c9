package web

import (
	"fmt"
	"html/template"
	"io"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/sweeney/button-sensor/internal/status"
)

var indexTmpl = template.Must(template.New("index").Funcs(template.FuncMap{
	"uptime": func(d time.Duration) string {
		d = d.Truncate(time.Second)
		days := int(d.Hours()) / 24
		h := int(d.Hours()) % 24
		m := int(d.Minutes()) % 60
		s := int(d.Seconds()) % 60
		if days > 0 {
			return fmt.Sprintf("%dd %dh %dm %ds", days, h, m, s)
		}
		if h > 0 {
			return fmt.Sprintf("%dh %dm %ds", h, m, s)
		}
		if m > 0 {
			return fmt.Sprintf("%dm %ds", m, s)
		}
		return fmt.Sprintf("%ds", s)
	},
	"stateClass": func(state string) string {
		switch state {
		case "PRESSED", "DOUBLE_PRESSED", "PRESSED_WAKE":
			return "pressed"
		case "HELD":
			return "held"
		case "":
			return "unknown"
		}
		return "idle"
	},
	"stateOrUnknown": func(s string) string {
		if s == "" {
			return "UNKNOWN"
		}
		return s
	},
}).Parse(indexHTML))

const indexHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>Button Sensor{{if .Config.Name}} ({{.Config.Name}}){{end}}</title>
<style>
body { font-family: monospace; max-width: 600px; margin: 2em auto; padding: 0 1em; }
h1 { font-size: 1.4em; }
table { border-collapse: collapse; width: 100%; margin: 1em 0; }
td, th { text-align: left; padding: 4px 8px; border-bottom: 1px solid #ddd; }
th { width: 40%; }
.pressed { color: green; font-weight: bold; }
.held { color: purple; font-weight: bold; }
.idle { color: #888; }
.unknown { color: orange; }
.connected { color: green; }
.disconnected { color: red; }
.live-dot { display: inline-block; width: 8px; height: 8px; border-radius: 50%; margin-left: 6px; vertical-align: middle; }
.live-dot.ok { background: green; }
.live-dot.err { background: red; }
.live-dot.pending { background: orange; }
</style>
</head>
<body>
<h1>Button Sensor{{if .Config.Name}}: {{.Config.Name}}{{end}}{{if .Config.WSBroker}}<span id="live-dot" class="live-dot pending" title="connecting"></span>{{end}}</h1>

<h2>Button</h2>
<table>
<tr><th>Pin</th><td>{{.Config.Pin}} ({{.Config.Pull}}, {{.Config.Contact}}, active {{.Config.ActiveLevel}})</td></tr>
<tr><th>State</th><td id="button-state" class="{{stateClass (printf "%s" .Last)}}">{{stateOrUnknown (printf "%s" .Last)}}</td></tr>
<tr><th>Held for</th><td>{{if .Held}}{{.HoldMs}}ms{{else}}-{{end}}</td></tr>
<tr><th>Last event</th><td id="last-event">-</td></tr>
<tr><th>GPIO errors</th><td>{{.GPIOErrors}}</td></tr>
</table>

<h2>Connectivity</h2>
<table>
<tr><th>MQTT</th><td class="{{if .MQTTConnected}}connected{{else}}disconnected{{end}}">{{if .MQTTConnected}}connected{{else}}disconnected{{end}}</td></tr>
<tr><th>Broker</th><td>{{.Config.Broker}}</td></tr>
{{if .Network}}<tr><th>Network</th><td>{{.Network.Status}} ({{.Network.Type}}{{if .Network.SSID}}, {{.Network.SSID}}{{end}})</td></tr>
<tr><th>IP</th><td>{{.Network.IP}}</td></tr>{{end}}
</table>

<h2>Event Counts</h2>
<table>
<tr><th>Press</th><td>{{.Counts.Press}}</td></tr>
<tr><th>Double press</th><td>{{.Counts.DoublePress}}</td></tr>
<tr><th>Hold</th><td>{{.Counts.Hold}}</td></tr>
<tr><th>Release press</th><td>{{.Counts.ReleasePress}}</td></tr>
<tr><th>Release double press</th><td>{{.Counts.ReleaseDoublePress}}</td></tr>
<tr><th>Release hold</th><td>{{.Counts.ReleaseHold}}</td></tr>
</table>

<h2>System</h2>
<table>
<tr><th>Uptime</th><td>{{uptime .Uptime}}</td></tr>
<tr><th>Started</th><td>{{.StartTime.UTC.Format "2006-01-02T15:04:05Z"}}</td></tr>
<tr><th>Backend</th><td>{{.Config.Backend}}</td></tr>
<tr><th>Poll</th><td>{{.Config.PollMs}}ms</td></tr>
<tr><th>Press debounce</th><td>{{.Config.PressDebounceMs}}ms</td></tr>
<tr><th>Release debounce</th><td>{{.Config.ReleaseDebounceMs}}ms</td></tr>
<tr><th>Hold</th><td>{{.Config.HoldMs}}ms</td></tr>
<tr><th>Double press</th><td>{{.Config.DoublePressMs}}ms</td></tr>
<tr><th>Heartbeat</th><td>{{if eq .Config.HeartbeatMs 0}}disabled{{else}}{{.Config.HeartbeatMs}}ms{{end}}</td></tr>
<tr><th>HTTP</th><td>{{.Config.HTTPAddr}}</td></tr>
</table>

<p><a href="/index.json">JSON</a></p>
{{if .Config.WSBroker}}
<script src="https://unpkg.com/mqtt@5/dist/mqtt.min.js"></script>
<script>
(function() {
  var broker = "{{.Config.WSBroker}}";
  var topic = "{{.Config.EventsTopic}}";
  var dot = document.getElementById("live-dot");
  var stateEl = document.getElementById("button-state");
  var lastEl = document.getElementById("last-event");

  var states = {
    PRESS: ["PRESSED", "pressed"],
    DOUBLE_PRESS: ["DOUBLE_PRESSED", "pressed"],
    HOLD: ["HELD", "held"],
    RELEASE_PRESS: ["RELEASED", "idle"],
    RELEASE_DOUBLE_PRESS: ["RELEASED", "idle"],
    RELEASE_HOLD: ["RELEASED", "idle"]
  };

  function setDot(cls, title) {
    dot.className = "live-dot " + cls;
    dot.title = title;
  }

  var client = mqtt.connect(broker, { reconnectPeriod: 5000 });

  client.on("connect", function() {
    setDot("ok", "live");
    client.subscribe(topic);
  });

  client.on("reconnect", function() {
    setDot("pending", "reconnecting");
  });

  client.on("offline", function() {
    setDot("err", "offline");
  });

  client.on("error", function() {
    setDot("err", "error");
  });

  client.on("message", function(t, payload) {
    try {
      var msg = JSON.parse(payload.toString());
      if (!msg.button) {
        return;
      }
      var s = states[msg.button.event];
      if (s) {
        stateEl.textContent = s[0];
        stateEl.className = s[1];
      }
      lastEl.textContent = msg.button.event + (msg.button.hold_ms ? " (" + msg.button.hold_ms + "ms)" : "") + " at " + msg.button.timestamp;
    } catch (e) {}
  });
})();
</script>
{{end}}
</body>
</html>
`

func renderHTML(w io.Writer, snap status.Snapshot) {
	// Snapshot has Uptime() and Held() methods but the template needs fields.
	data := struct {
		status.Snapshot
		Uptime time.Duration
		Held   bool
	}{
		Snapshot: snap,
		Uptime:   snap.Uptime(),
		Held:     snap.Held(),
	}
	if err := indexTmpl.Execute(w, data); err != nil {
		log.Printf("web: render index: %v", err)
	}
}
