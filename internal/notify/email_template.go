package notify

const digestHTMLTemplate = `<!DOCTYPE html>
<html>
<head>
  <meta charset="UTF-8" />
  <meta name="viewport" content="width=device-width, initial-scale=1" />
  <title>DOU — {{.RunDate}}</title>
</head>
<body style="font-family: Arial, sans-serif; color: #111827;">
  <h2>DOU — ANTT/SUFER — {{.RunDate}}</h2>
  <p>Total de achados: <b>{{.Total}}</b></p>

  {{if not .Items}}
  <p>Nenhum achado hoje. Este é um e-mail de confirmação de funcionamento.</p>
  {{end}}

  {{range .Items}}
  <hr/>
  <h3>Achado #{{.Number}} — keyword: <code>{{.Keyword}}</code></h3>
  {{if .FilterName}}<p><b>Filtro:</b> {{.FilterName}}</p>{{end}}
  <p><b>Fonte:</b> <a href="{{.SourceURL}}">arquivo no INLABS</a></p>
  <pre style="white-space: pre-wrap; font-family: monospace; background: #f5f5f5; padding: 10px; border-radius: 5px;">{{.Snippet}}</pre>
  {{end}}

  <hr/>
  <p style="color: #666; font-size: 12px;">
    Clipping automático gerado via INLABS<br/>
    ANTT/SUFER — Diário Oficial da União
  </p>
</body>
</html>
`
