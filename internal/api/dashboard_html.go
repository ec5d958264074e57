package api

import "html/template"

// dashboardTmpl 面板页面模板
// 模板内嵌在二进制里，部署时只需要一个可执行文件
var dashboardTmpl = template.Must(template.New("dashboard").Parse(dashboardHTML))

const dashboardHTML = `<!DOCTYPE html>
<html lang="zh">
  <head>
    <meta charset="utf-8" />
    <title>Campaign Tracker</title>
    <meta name="viewport" content="width=device-width, initial-scale=1">
    <style>
      body{margin:0;padding:0;background:#f8fafc;color:#0f172a;font-family:-apple-system,Segoe UI,Helvetica,Arial,sans-serif}
      .topbar{position:fixed;top:0;left:0;right:0;height:48px;display:flex;align-items:center;justify-content:space-between;padding:0 16px;background:linear-gradient(90deg,#0b1324,#0f172a);z-index:9999}
      .brand{font-weight:600;letter-spacing:.2px;color:#e2e8f0}
      .badge{padding:4px 10px;border-radius:999px;font-size:12px;font-weight:600}
      .badge-edit{background:#fef3c7;color:#92400e}
      .badge-read{background:#e0f2fe;color:#075985}
      .badge-level{background:#ede9fe;color:#5b21b6;font-size:13px;vertical-align:middle}
      .wrap{max-width:1100px;margin:64px auto 40px;padding:0 16px}
      .banner{padding:10px 14px;border-radius:8px;margin-bottom:10px;font-size:14px}
      .banner-warn{background:#fffae6;border:1px solid #f0e6b4;color:#713f12}
      .banner-error{background:#fee2e2;border:1px solid #fecaca;color:#991b1b}
      .banner-ok{background:#dcfce7;border:1px solid #bbf7d0;color:#166534}
      .meta{color:#64748b;font-size:13px;margin:6px 0 16px}
      .meta code{background:#e2e8f0;padding:1px 6px;border-radius:4px}
      .picker{margin-bottom:16px}
      .picker select{padding:6px 10px;border:1px solid #d1d5db;border-radius:6px;background:#ffffff}
      .card{background:#ffffff;border:1px solid #e5e7eb;border-radius:10px;padding:16px 20px;margin-bottom:20px}
      .card h2{margin:0 0 4px}
      .card .sub{color:#64748b;margin:0 0 10px;font-size:14px}
      .card dl{margin:0;display:grid;grid-template-columns:max-content 1fr;gap:6px 16px;font-size:14px}
      .card dt{color:#64748b}
      .card dd{margin:0;white-space:pre-wrap}
      .tablewrap{overflow-x:auto;background:#ffffff;border:1px solid #e5e7eb;border-radius:10px}
      table{border-collapse:collapse;width:100%;font-size:14px}
      th,td{border-bottom:1px solid #e5e7eb;padding:8px 10px;text-align:left;vertical-align:top;white-space:pre-wrap}
      th{background:#f1f5f9;white-space:nowrap}
      td input{width:100%;min-width:90px;box-sizing:border-box;border:1px solid #d1d5db;border-radius:4px;padding:5px 6px;font:inherit}
      .actions{margin:14px 0 28px;display:flex;gap:10px;align-items:center}
      button,.btn{padding:7px 14px;border-radius:6px;border:1px solid #d1d5db;background:#f8fafc;color:#0f172a;font:inherit;text-decoration:none;cursor:pointer}
      button:hover,.btn:hover{border-color:#94a3b8}
      button.primary{background:#0ea5e9;border-color:#0ea5e9;color:#ffffff}
      button.danger{background:#ffffff;border-color:#fca5a5;color:#b91c1c}
      .addrow{background:#ffffff;border:1px solid #e5e7eb;border-radius:10px;padding:16px 20px;margin-bottom:28px}
      .addrow h3{margin:0 0 12px}
      .addrow .grid{display:grid;grid-template-columns:repeat(auto-fill,minmax(220px,1fr));gap:10px 16px}
      .addrow label{display:flex;flex-direction:column;font-size:13px;color:#475569;gap:4px}
      .addrow input{border:1px solid #d1d5db;border-radius:4px;padding:6px 8px;font:inherit}
      .empty{color:#94a3b8;padding:24px;text-align:center}
    </style>
  </head>
  <body>
    <div class="topbar">
      <div class="brand">Campaign Tracker</div>
      <div>
        {{if .EditMode}}<span class="badge badge-edit">GM编辑模式</span>{{else}}<span class="badge badge-read">只读模式</span>{{end}}
      </div>
    </div>
    <div class="wrap">
      {{range .Warnings}}<div class="banner banner-warn">{{.}}</div>{{end}}
      {{if .Alert}}<div class="banner banner-error">{{.Alert}}</div>{{end}}
      {{if .Notice}}<div class="banner banner-ok">{{.Notice}}</div>{{end}}

      <div class="meta">存储后端: <code>{{.Backend}}</code> · 共 {{.Roster.Len}} 行</div>

      <form method="get" action="/" class="picker">
        {{if .EditKey}}<input type="hidden" name="key" value="{{.EditKey}}">{{end}}
        <label>角色
          <select name="character" onchange="this.form.submit()">
            <option value="">全部</option>
            {{range .Characters}}<option value="{{.}}"{{if eq . $.Selected}} selected{{end}}>{{.}}</option>{{end}}
          </select>
        </label>
        <noscript><button type="submit">查看</button></noscript>
      </form>

      {{with .Picked}}
      <div class="card">
        <h2>{{.Character}} {{with .Level}}<span class="badge badge-level">Lv {{.}}</span>{{end}}</h2>
        <p class="sub">{{.Player}}{{with .XP}} · XP {{.}}{{end}}{{with .SessionDate}} · {{.}}{{end}}</p>
        <dl>
          {{with .Location}}<dt>Location</dt><dd>{{.}}</dd>{{end}}
          {{with .LastSession}}<dt>What Happened Last</dt><dd>{{.}}</dd>{{end}}
          {{with .QuestHooks}}<dt>Quest Hooks</dt><dd>{{.}}</dd>{{end}}
          {{with .Loot}}<dt>Loot/Rewards</dt><dd>{{.}}</dd>{{end}}
        </dl>
      </div>
      {{end}}

      {{if .EditMode}}
      <form method="post" action="/tracker/save">
        <input type="hidden" name="key" value="{{.EditKey}}">
        <div class="tablewrap">
          <table>
            <tr>
              <th></th>
              {{range .Columns}}<th>{{.}}</th>{{end}}
            </tr>
            {{range $i, $rec := .Roster.Records}}
            <tr>
              <td><input type="checkbox" name="row" value="{{$i}}"></td>
              {{range $j, $val := $rec.Values}}
              <td><input name="{{index $.Columns $j}}" value="{{$val}}"></td>
              {{end}}
            </tr>
            {{end}}
          </table>
          {{if eq .Roster.Len 0}}<div class="empty">暂无记录</div>{{end}}
        </div>
        <div class="actions">
          <button type="submit" class="primary">保存全部</button>
          <button type="submit" class="danger" formaction="/tracker/delete">删除所选</button>
          <a class="btn" href="/export.csv?key={{.EditKey}}">导出CSV</a>
        </div>
      </form>

      <form method="post" action="/tracker/rows" class="addrow">
        <input type="hidden" name="key" value="{{.EditKey}}">
        <h3>添加新行</h3>
        <div class="grid">
          {{range .Columns}}<label>{{.}}<input name="{{.}}"></label>{{end}}
        </div>
        <div class="actions">
          <button type="submit" class="primary">添加</button>
        </div>
      </form>
      {{else}}
      <div class="tablewrap">
        <table>
          <tr>{{range .Columns}}<th>{{.}}</th>{{end}}</tr>
          {{range .Roster.Records}}
          <tr>{{range .Values}}<td>{{.}}</td>{{end}}</tr>
          {{end}}
        </table>
        {{if eq .Roster.Len 0}}<div class="empty">暂无记录</div>{{end}}
      </div>
      {{end}}
    </div>
  </body>
</html>`
