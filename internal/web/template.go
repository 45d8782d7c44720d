package web

import (
	"fmt"
	"html/template"
	"io"
	"strings"
	"time"

	"github.com/sweeney/mailbox-sensor/internal/status"
)

var indexTmpl = template.Must(template.New("index").Funcs(template.FuncMap{
	"uptime": formatUptime,
	"flap":   status.FlapState,
	"clock": func(t time.Time) string {
		return t.Format("2006-01-02 15:04:05")
	},
}).Parse(indexHTML))

const indexHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<meta http-equiv="refresh" content="10">
<title>Mailbox</title>
<style>
body { font-family: sans-serif; max-width: 640px; margin: 1.5em auto; padding: 0 1em; color: #222; }
h1 { font-size: 1.5em; margin-bottom: 0.2em; }
h2 { font-size: 1.1em; margin-top: 1.5em; }
table { border-collapse: collapse; width: 100%; }
td, th { text-align: left; padding: 3px 6px; border-bottom: 1px solid #eee; }
th { width: 45%; font-weight: normal; color: #555; }
.yes { color: green; font-weight: bold; }
.no { color: #888; }
.open { color: orange; font-weight: bold; }
.connected { color: green; }
.disconnected { color: red; }
.lcd { background: #224; color: #9cf; padding: 6px 10px; display: inline-block; white-space: pre; }
</style>
</head>
<body>
<h1>Mailbox</h1>

<h2>State</h2>
<table>
<tr><th>Mail</th><td id="mail" class="{{if .Mailbox.MailPresent}}yes{{else}}no{{end}}">{{if .Mailbox.MailPresent}}present{{else}}empty{{end}}</td></tr>
<tr><th>Drop flap</th><td class="{{if .Mailbox.DropOpen}}open{{end}}">{{flap .Mailbox.DropOpen}}{{if .Mailbox.DropOpen}} since {{clock .Mailbox.DropOpenSince}}{{end}}</td></tr>
<tr><th>Retrieval flap</th><td class="{{if .Mailbox.RetrievalOpen}}open{{end}}">{{flap .Mailbox.RetrievalOpen}}</td></tr>
<tr><th>Opened since reset</th><td>{{if .Mailbox.OpenedSinceReset}}yes{{else}}no{{end}}</td></tr>
<tr><th>Deliveries today</th><td id="today">{{.Mailbox.TodayCount}}</td></tr>
<tr><th>Display</th><td><span class="lcd">{{index .Display 0}}
{{index .Display 1}}</span></td></tr>
</table>

<h2>Recent Events</h2>
<table>
{{range .Recent}}<tr><th>{{clock .Timestamp}}</th><td>{{.Type}}{{if .Count}} (#{{.Count}}){{end}}</td></tr>
{{else}}<tr><td>none</td></tr>
{{end}}</table>

<h2>Connectivity</h2>
<table>
<tr><th>Time sync</th><td class="{{if .TimeSynced}}connected{{else}}disconnected{{end}}">{{if .TimeSynced}}synced{{else}}not synced{{end}}</td></tr>
<tr><th>MQTT</th><td class="{{if .MQTTConnected}}connected{{else}}disconnected{{end}}">{{if .MQTTConnected}}connected{{else}}disconnected{{end}}</td></tr>
<tr><th>Broker</th><td>{{.Config.Broker}}</td></tr>
{{if .Network}}<tr><th>Network</th><td>{{.Network.Status}} ({{.Network.Type}}{{if .Network.SSID}}, {{.Network.SSID}}{{end}})</td></tr>
<tr><th>IP</th><td>{{.Network.IP}}</td></tr>{{end}}
</table>

<h2>Event Counts</h2>
<table>
<tr><th>Mail arrived</th><td>{{.Mailbox.Counts.MailArrived}}</td></tr>
<tr><th>Retrieved</th><td>{{.Mailbox.Counts.AutoRetrieval}}</td></tr>
<tr><th>Manual reset</th><td>{{.Mailbox.Counts.ManualRetrieval}}</td></tr>
<tr><th>Flap open too long</th><td>{{.Mailbox.Counts.FlapOpenTooLong}}</td></tr>
</table>

<h2>System</h2>
<table>
<tr><th>Uptime</th><td>{{uptime .Uptime}}</td></tr>
<tr><th>Started</th><td>{{.StartTime.UTC.Format "2006-01-02T15:04:05Z"}}</td></tr>
<tr><th>Time zone</th><td>{{.Config.TimeZone}}</td></tr>
<tr><th>Poll</th><td>{{.Config.PollMs}}ms</td></tr>
<tr><th>Warn after</th><td>{{.Config.WarnAfterMs}}ms</td></tr>
<tr><th>Heartbeat</th><td>{{if eq .Config.HeartbeatMs 0}}disabled{{else}}{{.Config.HeartbeatMs}}ms{{end}}</td></tr>
<tr><th>Notifiers</th><td>{{range $i, $n := .Config.Notifiers}}{{if $i}}, {{end}}{{$n}}{{else}}none{{end}}</td></tr>
</table>

<p><a href="/index.json">JSON</a> | <a href="/metrics">metrics</a></p>
</body>
</html>
`

// formatUptime renders d as e.g. "2d 3h 4m 5s", dropping leading zero units.
func formatUptime(d time.Duration) string {
	secs := int64(d / time.Second)
	parts := []struct {
		n    int64
		unit string
	}{
		{secs / 86400, "d"},
		{secs / 3600 % 24, "h"},
		{secs / 60 % 60, "m"},
		{secs % 60, "s"},
	}

	var b strings.Builder
	for i, p := range parts {
		if b.Len() == 0 && p.n == 0 && i < len(parts)-1 {
			continue
		}
		if b.Len() > 0 {
			b.WriteByte(' ')
		}
		fmt.Fprintf(&b, "%d%s", p.n, p.unit)
	}
	return b.String()
}

func renderHTML(w io.Writer, snap status.Snapshot) error {
	// Snapshot has an Uptime method but the template needs a field.
	data := struct {
		status.Snapshot
		Uptime time.Duration
	}{
		Snapshot: snap,
		Uptime:   snap.Uptime(),
	}
	return indexTmpl.Execute(w, data)
}
