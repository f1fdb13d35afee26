package web

import (
	"html/template"
	"net/url"
)

// Order ids are free text, so path segments built from them are escaped.
var templateFuncs = template.FuncMap{"pathEscape": url.PathEscape}

var pageTemplates = template.Must(template.New("portal").Funcs(templateFuncs).Parse(`
{{define "head"}}<!doctype html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>{{.}} · Customer Portal</title>
<style>
body{font-family:system-ui,sans-serif;margin:0;background:#f6f7f9;color:#1d2330}
header{display:flex;align-items:center;gap:1rem;padding:.75rem 1.5rem;background:#1d2330;color:#fff}
header a{color:#fff;text-decoration:none}
header form{margin-left:auto}
main{max-width:1100px;margin:1.5rem auto;padding:0 1rem}
.notice{padding:.6rem .9rem;border-radius:6px;margin:.5rem 0}
.notice-info{background:#e7f1ff}.notice-success{background:#e5f6ea}
.notice-warning{background:#fff5db}.notice-error{background:#fde8e8}
.cards{display:grid;grid-template-columns:repeat(4,1fr);gap:1rem;margin:1rem 0}
.card{background:#fff;border-radius:8px;padding:1rem;box-shadow:0 1px 2px rgba(0,0,0,.08)}
.card .value{font-size:1.6rem;font-weight:600}
.filters{display:flex;flex-wrap:wrap;gap:.75rem;align-items:end;margin:1rem 0}
details.order{background:#fff;border-radius:8px;margin:.5rem 0;padding:.75rem 1rem}
details.order summary{cursor:pointer;display:flex;gap:1.5rem}
table{border-collapse:collapse;width:100%;margin:.5rem 0}
td,th{padding:.35rem .5rem;border-bottom:1px solid #e3e5ea;text-align:left}
pre.raw-json{background:#fff;padding:1rem;border-radius:8px;overflow:auto}
</style>
</head>
<body>
{{end}}

{{define "nav"}}<header>
<strong>Customer Portal</strong>
<a href="/orders">Orders</a>
<a href="/lookup">Product Lookup</a>
<span>Customer {{.}}</span>
<form method="post" action="/logout"><button type="submit">Log out</button></form>
</header>
{{end}}

{{define "notices"}}{{range .}}<div class="notice notice-{{.Level}}">{{.Text}}</div>
{{end}}{{end}}

{{define "login"}}{{template "head" "Log in"}}
<main>
<h1>Customer Portal</h1>
{{if .Error}}<div class="notice notice-error" id="login-error">{{.Error}}</div>{{end}}
<form method="post" action="/login" id="login-form">
<label>Customer ID <input name="customer_id" value="{{.CustomerID}}" inputmode="numeric" required></label>
<label>Password <input name="password" type="password"{{if .PasswordRequired}} required{{end}}></label>
<button type="submit">Log in</button>
</form>
</main>
</body></html>
{{end}}

{{define "orders"}}{{template "head" "Orders"}}
{{template "nav" .CustomerID}}
<main>
<h1 id="greeting">Welcome{{if .CustomerName}}, <span id="customer-name">{{.CustomerName}}</span>{{end}}</h1>
{{template "notices" .Notices}}
<section class="cards">
<div class="card" data-card="total-orders"><div>Total Orders</div><div class="value">{{.Dashboard.TotalOrders}}</div></div>
<div class="card" data-card="active-orders"><div>Active Orders</div><div class="value">{{.Dashboard.ActiveOrders}}</div></div>
<div class="card" data-card="total-spent"><div>Total Spent</div><div class="value">{{.Dashboard.TotalSpent}}</div></div>
<div class="card" data-card="total-items"><div>Total Items</div><div class="value">{{.Dashboard.TotalItems}}</div></div>
</section>
<form class="filters" method="get" action="/orders">
<label>Status <select name="status">{{$status := .Filter.Status}}{{range .Filter.StatusOptions}}
<option value="{{.}}"{{if eq . $status}} selected{{end}}>{{.}}</option>{{end}}
</select></label>
<label>From <input type="date" name="from" value="{{.Filter.From}}" min="{{.Filter.MinDate}}" max="{{.Filter.MaxDate}}"></label>
<label>To <input type="date" name="to" value="{{.Filter.To}}" min="{{.Filter.MinDate}}" max="{{.Filter.MaxDate}}"></label>
<label>Order ID <input type="search" name="q" value="{{.Filter.Search}}"></label>
<button type="submit">Apply</button>
<button type="submit" name="refresh" value="1">Refresh</button>
<a href="{{.ExportURL}}" id="export-link">Export XLSX</a>
</form>
<p id="showing">Showing {{len .Orders}} of {{.Total}} orders · fetched {{.FetchedAt}}</p>
{{$query := .Filter.QueryString}}
{{range .Orders}}
<details class="order" data-order-id="{{.ID}}"{{if .Open}} open{{end}}>
<summary><strong>Order #{{.ID}}</strong><span class="status">{{.Status}}</span><span>{{.OrderDate}}</span><span class="order-total">{{.Total}}</span><span>{{.ItemCount}} item(s)</span></summary>
<p>Ship date: {{.ShipDate}}</p>
<table class="items">
<thead><tr><th>Product</th><th>Price</th><th>Quantity</th><th>Subtotal</th></tr></thead>
<tbody>{{range .Items}}<tr><td>{{.Product}}</td><td>{{.Price}}</td><td>{{.Quantity}}</td><td>{{.Subtotal}}</td></tr>{{end}}</tbody>
</table>
<form method="post" action="/orders/{{pathEscape .ID}}/recommendations{{$query}}">
<button type="submit">Get Recommendations</button>
</form>
{{template "notices" .RecommendationNotices}}
{{if .Recommendations}}<ol class="recommendations">{{range .Recommendations}}<li>{{.}}</li>{{end}}</ol>{{end}}
</details>
{{end}}
</main>
</body></html>
{{end}}

{{define "lookup"}}{{template "head" "Product Lookup"}}
{{template "nav" .CustomerID}}
<main>
<h1>Product Supplier Lookup</h1>
<form method="get" action="/lookup" id="lookup-form">
<label>Product ID <input name="product_id" value="{{.ProductID}}"></label>
<button type="submit">Search</button>
</form>
{{template "notices" .Notices}}
{{with .Supplier}}{{if .Known}}
<section class="card" id="supplier-card">
<h2>{{.CompanyName}}</h2>
<dl>{{range .Fields}}<dt>{{.Label}}</dt><dd>{{.Value}}</dd>{{end}}</dl>
{{if .Additional}}<h3>Additional Information</h3>
<ul class="additional">{{range .Additional}}<li><strong>{{.Label}}:</strong> {{.Value}}</li>{{end}}</ul>{{end}}
</section>
{{else}}
<pre class="raw-json">{{.RawJSON}}</pre>
{{end}}{{end}}
</main>
</body></html>
{{end}}
`))
