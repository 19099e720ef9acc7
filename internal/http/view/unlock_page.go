package view

import (
	"bytes"
	"html/template"
)

// UnlockPageData provides the fields of the password unlock page.
//
// Password is the stored, client-side encoded credential. The comparison runs
// in the browser, so anyone reading the page source can recover it; this page
// gates casual visitors only.
type UnlockPageData struct {
	Platform  string
	Code      string
	TargetURL string
	Password  string
}

var unlockPageTmpl = template.Must(template.New("unlock_page").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
	<meta charset="utf-8" />
	<meta name="viewport" content="width=device-width, initial-scale=1" />
	<title>Protected Link · {{.Platform}}</title>
	<link href="https://fonts.googleapis.com/css2?family=Inter:wght@400;600;700;800&display=swap" rel="stylesheet">
	<style>
		* { box-sizing: border-box; margin: 0; padding: 0; }
		body {
			font-family: "Inter", sans-serif;
			background: #f8fafc;
			display: flex;
			align-items: center;
			justify-content: center;
			min-height: 100vh;
			padding: 20px;
		}
		.box {
			background: #fff;
			border: 1.5px solid #e2e8f0;
			border-radius: 16px;
			padding: 40px;
			max-width: 380px;
			width: 100%;
			text-align: center;
			box-shadow: 0 4px 20px rgba(0, 0, 0, 0.08);
		}
		.icon { font-size: 52px; margin-bottom: 16px; }
		h2 { font-size: 20px; font-weight: 800; margin-bottom: 8px; }
		p { font-size: 13px; color: #64748b; margin-bottom: 20px; }
		input {
			width: 100%;
			padding: 10px 13px;
			border: 1.5px solid #e2e8f0;
			border-radius: 8px;
			font-size: 14px;
			margin-bottom: 12px;
			outline: none;
		}
		input:focus { border-color: #f97316; box-shadow: 0 0 0 3px rgba(249, 115, 22, 0.1); }
		button {
			width: 100%;
			padding: 11px;
			background: linear-gradient(135deg, #f97316, #ef4444);
			color: #fff;
			border: none;
			border-radius: 8px;
			font-size: 14px;
			font-weight: 700;
			cursor: pointer;
		}
		.err { color: #ef4444; font-size: 12px; margin-top: 8px; display: none; }
	</style>
</head>
<body>
	<div class="box">
		<div class="icon">🔒</div>
		<h2>Protected Link</h2>
		<p>Enter the password to access this link.</p>
		<input type="password" id="pwd" placeholder="Enter password…" autofocus>
		<button id="unlock">Unlock &amp; Open →</button>
		<p class="err" id="err">Incorrect password. Try again.</p>
	</div>
	<script>
		(function () {
			const expected = {{.Password}};
			const target = {{.TargetURL}};
			const input = document.getElementById("pwd");
			const errBox = document.getElementById("err");

			function unlock() {
				let encoded = "";
				try {
					encoded = btoa(input.value);
				} catch (e) {
					encoded = "";
				}
				if (encoded === expected) {
					window.location.href = target;
					return;
				}
				errBox.style.display = "block";
				setTimeout(function () { errBox.style.display = "none"; }, 3000);
			}

			document.getElementById("unlock").addEventListener("click", unlock);
			input.addEventListener("keydown", function (e) {
				if (e.key === "Enter") unlock();
			});
		})();
	</script>
</body>
</html>
`))

// RenderUnlockPage expands the unlock page template.
func RenderUnlockPage(data UnlockPageData) (string, error) {
	if data.Platform == "" {
		data.Platform = "Trisend"
	}
	var buf bytes.Buffer
	if err := unlockPageTmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
