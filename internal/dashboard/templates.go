package dashboard

import "html/template"

const themeVars = `
*{margin:0;padding:0;box-sizing:border-box}
:root{
  --bg:#0a0a0f;--surface:#12121a;--surface2:#1a1a26;--border:#2a2a3a;
  --text:#e0e0ee;--text2:#8888aa;--text3:#555570;
  --accent:#6366f1;--accent-light:#818cf8;--accent-dim:#4f46e5;
  --danger:#ef4444;--success:#22c55e;--warn:#f59e0b;
  --mono:'SF Mono','Fira Code','JetBrains Mono',monospace;
  --sans:-apple-system,BlinkMacSystemFont,'Segoe UI',Roboto,sans-serif;
}
body.light{
  --bg:#f6f6fa;--surface:#ffffff;--surface2:#eeeef6;--border:#d8d8e4;
  --text:#16161f;--text2:#4a4a66;--text3:#8a8aa0;
  --accent-light:#4f46e5;
}
`

var loginTmpl = template.Must(template.New("login").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>localesdash · login</title>
<style>` + themeVars + `
body{font-family:var(--sans);background:var(--bg);color:var(--text);min-height:100vh;display:flex;align-items:center;justify-content:center}
.login-card{background:var(--surface);border:1px solid var(--border);border-radius:12px;padding:48px 40px;max-width:400px;width:100%;text-align:center}
.logo{font-family:var(--mono);font-size:1.5rem;font-weight:700;letter-spacing:-0.5px;margin-bottom:8px}
.logo span{color:var(--accent-light)}
.subtitle{color:var(--text2);font-size:0.85rem;margin-bottom:32px}
input{
  width:100%;padding:12px 14px;margin-bottom:12px;background:var(--bg);border:1px solid var(--border);
  border-radius:8px;color:var(--text);font-family:var(--mono);font-size:0.95rem;outline:none;transition:border-color 0.2s;
}
input:focus{border-color:var(--accent)}
button{
  width:100%;padding:12px;margin-top:4px;background:var(--accent);color:#fff;
  border:none;border-radius:8px;font-size:0.9rem;font-weight:600;cursor:pointer;
  transition:background 0.2s;
}
button:hover{background:var(--accent-dim)}
.error{color:var(--danger);font-size:0.82rem;margin-top:12px}
</style>
</head>
<body class="{{.Theme}}">
<div class="login-card">
  <div class="logo">locales<span>dash</span></div>
  <div class="subtitle">Emitter monitor</div>
  <form method="POST" action="/dashboard/login" autocomplete="off">
    <input type="text" name="username" placeholder="Username" value="{{.Username}}" autofocus required>
    <input type="password" name="password" placeholder="Password" required>
    <button type="submit">Sign in</button>
  </form>
  {{if .Error}}<p class="error">{{.Error}}</p>{{end}}
</div>
</body>
</html>`))

const boardTmplText = `{{define "board"}}
<div class="stats">
  <div class="stat"><div class="label">Shown</div><div class="value">{{.Shown}}</div></div>
  <div class="stat"><div class="label">Active</div><div class="value success">{{.ActiveCount}}</div></div>
  <div class="stat"><div class="label">Inactive</div><div class="value danger">{{.InactiveCount}}</div></div>
</div>
{{if not .Loaded}}
<div class="empty">No data yet. Waiting for the first refresh.</div>
{{else if not .Rows}}
<div class="empty">No emitters match the current filters.</div>
{{else}}
<div class="grid">
{{range .Rows}}
  <div class="tile" data-emitter="{{.ID}}">
    <div class="name" title="{{.Label}}">{{.Label}}</div>
    {{if .Active}}<span class="badge-active">Active</span>{{else}}<span class="badge-inactive">Inactive</span>{{end}}
    <div class="date">{{.Date}}</div>
  </div>
{{end}}
</div>
{{end}}
{{end}}`

var dashboardTmpl = template.Must(template.New("dashboard").Parse(boardTmplText + `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>localesdash · emitters</title>
<script src="https://unpkg.com/htmx.org@2.0.4" integrity="sha384-HGfztofotfshcF7+8n44JQL2oJmowVChPTg48S+jvZoztPfvwD79OC/LTtG6dMp+" crossorigin="anonymous"></script>
<style>` + themeVars + `
body{font-family:var(--sans);background:var(--bg);color:var(--text);min-height:100vh}

nav{background:var(--surface);border-bottom:1px solid var(--border);padding:0 24px;display:flex;align-items:center;gap:12px;height:52px;position:sticky;top:0;z-index:100}
nav .logo{font-family:var(--mono);font-size:1.1rem;font-weight:700;letter-spacing:-0.5px;text-decoration:none;color:var(--text)}
nav .logo span{color:var(--accent-light)}
nav .spacer{flex:1}
nav .user{color:var(--text2);font-size:0.82rem}
nav .user b{color:var(--text)}
nav form{display:inline}
.toggle-btn{display:inline-block;padding:6px 14px;background:var(--surface2);color:var(--text2);border:1px solid var(--border);border-radius:6px;font-size:0.78rem;cursor:pointer;transition:all 0.2s}
.toggle-btn:hover{background:var(--accent-dim);color:#fff;border-color:var(--accent)}

main{max-width:1100px;margin:0 auto;padding:32px 24px}
h1{font-size:1.4rem;font-weight:600;margin-bottom:20px}
h1 span{color:var(--accent-light)}

.filters{display:flex;gap:12px;margin-bottom:20px;align-items:flex-end;flex-wrap:wrap}
.filters label{display:block;color:var(--text3);font-size:0.7rem;text-transform:uppercase;letter-spacing:1px;margin-bottom:4px}
.filters input,.filters select{
  padding:8px 12px;background:var(--bg);border:1px solid var(--border);
  border-radius:6px;color:var(--text);font-family:var(--mono);font-size:0.82rem;outline:none;
}
.filters .grow{flex:1;min-width:200px}
.filters .grow input{width:100%}

.stats{display:grid;grid-template-columns:repeat(3,1fr);gap:16px;margin-bottom:24px}
.stat{background:var(--surface);border:1px solid var(--border);border-radius:10px;padding:16px 20px}
.stat .label{color:var(--text3);font-size:0.72rem;text-transform:uppercase;letter-spacing:1px;margin-bottom:6px}
.stat .value{font-family:var(--mono);font-size:1.6rem;font-weight:700}
.stat .value.success{color:var(--success)}
.stat .value.danger{color:var(--danger)}

.grid{display:grid;grid-template-columns:repeat(auto-fill,minmax(220px,1fr));gap:12px}
.tile{background:var(--surface);border:1px solid var(--border);border-radius:10px;padding:14px 16px;cursor:pointer;transition:border-color 0.2s}
.tile:hover{border-color:var(--accent)}
.tile .name{font-family:var(--mono);font-size:0.85rem;font-weight:600;margin-bottom:8px;overflow:hidden;text-overflow:ellipsis;white-space:nowrap}
.tile .date{color:var(--text2);font-family:var(--mono);font-size:0.75rem;margin-top:8px}
.badge-active{background:#22c55e20;color:var(--success);padding:3px 8px;border-radius:4px;font-size:0.7rem;font-weight:600}
.badge-inactive{background:#ef444420;color:var(--danger);padding:3px 8px;border-radius:4px;font-size:0.7rem;font-weight:600}
.empty{color:var(--text3);text-align:center;padding:40px 0;font-size:0.85rem}

.popup{position:fixed;z-index:200;background:var(--surface);border:1px solid var(--accent);border-radius:10px;box-shadow:0 8px 32px rgba(0,0,0,0.4);display:flex;flex-direction:column;align-items:center;justify-content:center;gap:6px}
.popup .title{color:var(--text3);font-size:0.7rem;text-transform:uppercase;letter-spacing:1px}
.popup .value{font-family:var(--mono);font-size:0.95rem}

footer{color:var(--text3);font-size:0.72rem;text-align:center;padding:24px}
</style>
</head>
<body class="{{.Theme}}">
<nav>
  <a href="/dashboard" class="logo">locales<span>dash</span></a>
  <div class="spacer"></div>
  <span class="user">Vendedor: <b>{{.User}}</b></span>
  <form method="POST" action="/dashboard/theme">
    <input type="hidden" name="next" value="{{.Self}}">
    <button class="toggle-btn" type="submit">{{if eq .Theme "light"}}Dark{{else}}Light{{end}} theme</button>
  </form>
  <form method="POST" action="/dashboard/logout">
    <button class="toggle-btn" type="submit">Log out</button>
  </form>
</nav>
<main>
<h1>Emitters <span>last seen</span></h1>

<form id="filters" class="filters" hx-get="/dashboard/api/emitters" hx-target="#board" hx-trigger="input changed delay:300ms, change" hx-push-url="false">
  <div class="grow">
    <label for="q">Search</label>
    <input type="search" id="q" name="q" value="{{.Filter.Query}}" placeholder="Emitter id">
  </div>
  <div>
    <label for="status">Status</label>
    <select id="status" name="status">
      {{range .Statuses}}<option value="{{.Value}}"{{if .Selected}} selected{{end}}>{{.Label}}</option>{{end}}
    </select>
  </div>
  <div>
    <label for="start">From</label>
    <input type="date" id="start" name="start" value="{{.Filter.Start}}">
  </div>
  <div>
    <label for="end">To</label>
    <input type="date" id="end" name="end" value="{{.Filter.End}}">
  </div>
</form>

<div id="board" hx-get="/dashboard/api/emitters" hx-include="#filters" hx-trigger="every {{.RefreshMS}}ms">
{{template "board" .}}
</div>
</main>

<div id="popup"></div>

<footer>Refreshing every {{.RefreshSeconds}} s</footer>

<script>
document.addEventListener('click', function(e) {
  var box = document.getElementById('popup-content');
  if (box && box.contains(e.target)) return;
  document.getElementById('popup').innerHTML = '';
  var tile = e.target.closest('[data-emitter]');
  if (!tile) return;
  var r = tile.getBoundingClientRect();
  var url = '/dashboard/api/emitter/' + encodeURIComponent(tile.dataset.emitter) +
    '?x=' + r.left + '&y=' + r.top + '&w=' + r.width + '&h=' + r.height;
  htmx.ajax('GET', url, {target: '#popup', swap: 'innerHTML'});
});
document.addEventListener('keydown', function(e) {
  if (e.key === 'Escape') document.getElementById('popup').innerHTML = '';
});
</script>
</body>
</html>`))

var boardPartialTmpl = template.Must(template.New("board-partial").Parse(boardTmplText + `{{template "board" .}}`))

var popupTmpl = template.Must(template.New("popup").Parse(`<div id="popup-content" class="popup" style="top:{{.Top}}px;left:{{.Left}}px;width:{{.Width}}px;height:{{.Height}}px">
  <div class="title">{{.Label}}</div>
  <div class="title">Fecha de pago</div>
  <div class="value">{{.Text}}</div>
</div>`))
