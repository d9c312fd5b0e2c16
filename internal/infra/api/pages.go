package api

import (
	"html/template"
	"net/http"
)

var visitPage = template.Must(template.New("visit").Parse(`<!doctype html>
<html lang="en">
<head>
<meta charset="utf-8" />
<meta name="viewport" content="width=device-width,initial-scale=1" />
<title>Redirecting…</title>
<style>
body{font-family:system-ui,Arial,sans-serif;margin:2rem;}
.card{max-width:560px;border:1px solid #ddd;border-radius:12px;padding:24px;}
.btn{display:inline-block;margin-top:16px;padding:10px 16px;border-radius:8px;border:1px solid #888;text-decoration:none}
</style>
</head>
<body>
<div class="card">
  <h2>You will be redirected in <span id="n">{{.Seconds}}</span> seconds</h2>
  <a class="btn" href="{{.Target}}">Continue now</a>
</div>
<script>
(function(){
  var n = {{.Seconds}}, el = document.getElementById("n");
  var t = setInterval(function(){
    n--; if (n >= 0) { el.textContent = n; }
    if (n <= 0) { clearInterval(t); window.location.replace({{.Target}}); }
  }, 1000);
  window.addEventListener("pagehide", function(){ clearInterval(t); });
})();
</script>
</body>
</html>`))

var notFoundPage = template.Must(template.New("nf").Parse(`<!doctype html>
<html lang="en">
<head>
<meta charset="utf-8" />
<meta name="viewport" content="width=device-width,initial-scale=1" />
<title>Not found</title>
<style>
body{font-family:system-ui,Arial,sans-serif;margin:2rem;}
.card{max-width:560px;border:1px solid #ddd;border-radius:12px;padding:24px;}
.fail{color:#b00020}
</style>
</head>
<body>
<div class="card">
  <h2 class="fail">{{.}}</h2>
  <p>This code does not exist or has been removed.</p>
</div>
</body>
</html>`))

func renderVisit(w http.ResponseWriter, target string, seconds int) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	_ = visitPage.Execute(w, struct {
		Target  string
		Seconds int
	}{Target: target, Seconds: seconds})
}

func renderNotFound(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_ = notFoundPage.Execute(w, msg)
}
