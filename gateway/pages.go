package gateway

import (
	"bytes"
	"html/template"
)

// PageRenderer renders the control panel. It must not touch the store.
type PageRenderer interface {
	RenderConfig(domain, token string) ([]byte, error)
}

// PageRendererFunc adapts a function to PageRenderer.
type PageRendererFunc func(domain, token string) ([]byte, error)

func (f PageRendererFunc) RenderConfig(domain, token string) ([]byte, error) {
	return f(domain, token)
}

// TemplatePages is the built-in PageRenderer.
type TemplatePages struct {
	tmpl *template.Template
}

func NewTemplatePages() *TemplatePages {
	return &TemplatePages{tmpl: configTemplate}
}

func (p *TemplatePages) RenderConfig(domain, token string) ([]byte, error) {
	var buf bytes.Buffer
	err := p.tmpl.Execute(&buf, struct {
		Domain string
		Token  string
	}{domain, token})
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

var configTemplate = template.Must(template.New("config").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{.Domain}}</title>
<style>
body { max-width: 40em; margin: 2em auto; font-family: sans-serif; }
code { background: #eee; padding: 0 .3em; }
fieldset { margin-top: 1.5em; }
</style>
</head>
<body>
<h1>{{.Domain}}</h1>
<p>Domain: <code>{{.Domain}}</code></p>
<p>Token: <code>{{.Token}}</code></p>
<p>Fetch an entry: <code>https://{{.Domain}}/&lt;name&gt;?token={{.Token}}</code></p>
<form method="post" enctype="multipart/form-data" action="/upload?token={{.Token}}">
<fieldset>
<legend>Upload</legend>
<p><input type="file" name="file" required></p>
<p>
<label><input type="radio" name="encryption" value="plaintext" checked> plaintext</label>
<label><input type="radio" name="encryption" value="ciphertext"> ciphertext (base64)</label>
</p>
<p><button type="submit">Upload</button></p>
</fieldset>
</form>
<fieldset>
<legend>Look up</legend>
<p><input type="text" id="keyword" name="keyword" placeholder="name"></p>
<p>
<button type="button" onclick="openEntry()">Open</button>
<button type="button" onclick="copyAddress()">Copy address</button>
</p>
</fieldset>
<script>
var domain = {{.Domain}};
var token = {{.Token}};
function entryAddress() {
	var keyword = document.getElementById("keyword").value;
	return "https://" + domain + "/" + encodeURI(keyword) + "?token=" + encodeURIComponent(token);
}
function openEntry() {
	window.open(entryAddress(), "_blank");
}
function copyAddress() {
	navigator.clipboard.writeText(entryAddress());
}
</script>
</body>
</html>
`))

const decoyPage = `<!DOCTYPE html>
<html>
<head>
<title>Welcome to nginx!</title>
<style>
    body {
        width: 35em;
        margin: 0 auto;
        font-family: Tahoma, Verdana, Arial, sans-serif;
    }
</style>
</head>
<body>
<h1>Welcome to nginx!</h1>
<p>If you see this page, the nginx web server is successfully installed and
working. Further configuration is required.</p>

<p>For online documentation and support please refer to
<a href="http://nginx.org/">nginx.org</a>.<br/>
Commercial support is available at
<a href="http://nginx.com/">nginx.com</a>.</p>

<p><em>Thank you for using nginx.</em></p>
</body>
</html>
`
