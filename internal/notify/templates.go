// AngelaMos | 2026
// templates.go

package notify

import (
	"bytes"
	"fmt"
	"html/template"
	"time"
)

var htmlTemplates = template.Must(template.New("mail").Parse(`
{{define "code"}}<div style="font-family: sans-serif">
<h2>Seu código de verificação</h2>
<p>Use o código abaixo para concluir o cadastro da sua barbearia:</p>
<p style="font-size: 28px; letter-spacing: 6px"><strong>{{.Code}}</strong></p>
<p>O código expira em {{.Minutes}} minutos.</p>
</div>{{end}}
{{define "license"}}<div style="font-family: sans-serif">
<h2>Sua chave de licença BarberMaster</h2>
<p>Olá! Sua chave de ativação é:</p>
<p style="font-size: 22px"><strong>{{.Key}}</strong></p>
<p>Acesse o painel e informe a chave para ativar sua conta.</p>
</div>{{end}}
{{define "reset"}}<div style="font-family: sans-serif">
<h2>Redefinição de senha</h2>
<p>Recebemos um pedido para redefinir sua senha. O link expira em {{.Minutes}} minutos.</p>
<p><a href="{{.Link}}">Redefinir senha</a></p>
<p>Se você não fez este pedido, ignore este email.</p>
</div>{{end}}
`))

func render(name string, data any) string {
	var buf bytes.Buffer
	if err := htmlTemplates.ExecuteTemplate(&buf, name, data); err != nil {
		return ""
	}
	return buf.String()
}

func VerificationCodeMessage(to, code string, ttl time.Duration) Message {
	minutes := int(ttl.Minutes())
	return Message{
		To:      to,
		Subject: "Seu código de verificação BarberMaster",
		TextBody: fmt.Sprintf(
			"Seu código de verificação é %s. Ele expira em %d minutos.",
			code,
			minutes,
		),
		HTMLBody: render("code", map[string]any{"Code": code, "Minutes": minutes}),
	}
}

func LicenseKeyMessage(to, key string) Message {
	return Message{
		To:       to,
		Subject:  "Sua chave de licença BarberMaster",
		TextBody: fmt.Sprintf("Sua chave de ativação é %s.", key),
		HTMLBody: render("license", map[string]any{"Key": key}),
	}
}

func PasswordResetMessage(to, link string, ttl time.Duration) Message {
	minutes := int(ttl.Minutes())
	return Message{
		To:      to,
		Subject: "Redefinição de senha BarberMaster",
		TextBody: fmt.Sprintf(
			"Para redefinir sua senha acesse %s (válido por %d minutos).",
			link,
			minutes,
		),
		HTMLBody: render("reset", map[string]any{"Link": link, "Minutes": minutes}),
	}
}
