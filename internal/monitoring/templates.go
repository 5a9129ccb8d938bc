package monitoring

// dashboardHTML is the monitor landing page. The two format verbs take the
// escaped session id (title) and the escaped query string (iframe links).
const dashboardHTML = `<!DOCTYPE html>
<html>
<head>
<title>Flash Monitor %s</title>
<style>
  body { background: #111; color: #ddd; font-family: sans-serif; margin: 1em; }
  h1 { font-size: 1.2em; }
  iframe { border: 1px solid #333; background: #1a1a1a; width: 48%%; height: 620px; }
  .links a { color: #6ece58; margin-right: 1em; }
</style>
</head>
<body>
<h1>Flash Detection Monitor</h1>
<div class="links">
  <a href="/monitor/charts/detections%[2]s">detections</a>
  <a href="/monitor/charts/confidence%[2]s">confidence</a>
  <a href="/monitor/stats/confidence">stats</a>
</div>
<iframe src="/monitor/charts/detections%[2]s"></iframe>
<iframe src="/monitor/charts/confidence%[2]s"></iframe>
</body>
</html>`
