package services

import (
	"database/sql"
	"fmt"
	"log"
	"net/smtp"
	"os"
	"strings"
	"time"

	"backend/models"

	"golang.org/x/net/html"
)

// convertHTMLToText converts HTML content to plain text for email sending
func convertHTMLToText(htmlContent string) string {
	doc, err := html.Parse(strings.NewReader(htmlContent))
	if err != nil {
		// If parsing fails, return the original content
		return htmlContent
	}

	var text strings.Builder
	var extractText func(*html.Node)
	extractText = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			text.WriteString(n.Data)
		case html.ElementNode:
			switch n.Data {
			case "p", "div", "br", "h1", "h2", "h3", "h4", "h5", "h6", "table", "tr":
				text.WriteString("\n")
			case "li":
				text.WriteString("- ")
			case "td", "th":
				text.WriteString(" | ")
			}
		}

		for child := n.FirstChild; child != nil; child = child.NextSibling {
			extractText(child)
		}
	}

	extractText(doc)

	result := text.String()
	result = strings.ReplaceAll(result, "\n\n\n", "\n\n")
	result = strings.TrimSpace(result)

	return result
}

// EmailService sends the tender deadline reminder emails
type EmailService struct {
	db       *sql.DB
	smtpHost string
	smtpPort string
	from     string
	username string
	password string
}

// NewEmailService builds the service from SMTP_* environment variables
func NewEmailService(db *sql.DB) *EmailService {
	host := os.Getenv("SMTP_HOST")
	if host == "" {
		host = "smtp.gmail.com"
	}
	port := os.Getenv("SMTP_PORT")
	if port == "" {
		port = "587"
	}
	return &EmailService{
		db:       db,
		smtpHost: host,
		smtpPort: port,
		from:     os.Getenv("SMTP_FROM"),
		username: os.Getenv("SMTP_USER"),
		password: os.Getenv("SMTP_PASSWORD"),
	}
}

// deadlineReminderTemplate is the HTML body of the reminder. Variables use
// the {{name}} placeholder syntax.
const deadlineReminderTemplate = `
<h2>Recordatorio de presentación</h2>
<p>La licitación <b>{{nombre}}</b> (expediente {{numero_expediente}}) se presenta el <b>{{fecha_presentacion}}</b>.</p>
<p>Quedan {{dias_restantes}} días para preparar la oferta.</p>
`

// processTemplate substitutes {{key}} placeholders in a template string
func processTemplate(templateStr string, variables map[string]string) string {
	result := templateStr
	for key, value := range variables {
		placeholder := fmt.Sprintf("{{%s}}", key)
		result = strings.ReplaceAll(result, placeholder, value)
	}
	return result
}

// UpcomingDeadlines returns tenders still under analysis whose presentation
// date falls within the next `days` days.
func (es *EmailService) UpcomingDeadlines(days int) ([]models.TenderDeadline, error) {
	rows, err := es.db.Query(`
		SELECT id_licitacion, nombre, COALESCE(numero_expediente, ''), fecha_presentacion::timestamp
		FROM tbl_licitaciones
		WHERE id_estado = $1
		  AND fecha_presentacion IS NOT NULL
		  AND fecha_presentacion::date BETWEEN NOW()::date AND (NOW() + ($2 || ' days')::interval)::date
		ORDER BY fecha_presentacion`, models.EstadoEnAnalisis, days)
	if err != nil {
		return nil, fmt.Errorf("failed to query upcoming deadlines: %w", err)
	}
	defer rows.Close()

	deadlines := []models.TenderDeadline{}
	for rows.Next() {
		var d models.TenderDeadline
		if err := rows.Scan(&d.IDLicitacion, &d.Nombre, &d.NumeroExpediente, &d.FechaPresentacion); err != nil {
			return nil, fmt.Errorf("failed to scan deadline: %w", err)
		}
		deadlines = append(deadlines, d)
	}
	return deadlines, rows.Err()
}

// SendDeadlineReminders emails every suspended-free user about tenders whose
// presentation deadline falls within the next `days` days. Intended to run
// from the daily cron.
func (es *EmailService) SendDeadlineReminders(days int) error {
	deadlines, err := es.UpcomingDeadlines(days)
	if err != nil {
		return err
	}
	if len(deadlines) == 0 {
		return nil
	}

	rows, err := es.db.Query(`SELECT email FROM users WHERE suspended = FALSE`)
	if err != nil {
		return fmt.Errorf("failed to query recipients: %w", err)
	}
	recipients := []string{}
	for rows.Next() {
		var email string
		if err := rows.Scan(&email); err != nil {
			rows.Close()
			return fmt.Errorf("failed to scan recipient: %w", err)
		}
		recipients = append(recipients, email)
	}
	rows.Close()

	if len(recipients) == 0 {
		return nil
	}

	for _, d := range deadlines {
		daysLeft := int(time.Until(d.FechaPresentacion).Hours() / 24)
		body := processTemplate(deadlineReminderTemplate, map[string]string{
			"nombre":             d.Nombre,
			"numero_expediente":  d.NumeroExpediente,
			"fecha_presentacion": d.FechaPresentacion.Format("2006-01-02"),
			"dias_restantes":     fmt.Sprintf("%d", daysLeft),
		})
		subject := fmt.Sprintf("Recordatorio: %s se presenta el %s", d.Nombre, d.FechaPresentacion.Format("2006-01-02"))

		for _, to := range recipients {
			if err := es.sendEmail(to, subject, convertHTMLToText(body)); err != nil {
				log.Printf("[email] failed to send reminder for tender %d to %s: %v", d.IDLicitacion, to, err)
			}
		}
	}
	return nil
}

// sendEmail sends a plain text email over SMTP
func (es *EmailService) sendEmail(to, subject, body string) error {
	if es.from == "" || es.username == "" {
		return fmt.Errorf("SMTP is not configured")
	}

	auth := smtp.PlainAuth("", es.username, es.password, es.smtpHost)

	headers := []string{
		"From: " + es.from,
		"To: " + to,
		"Subject: " + subject,
		"",
		body,
	}
	msg := []byte(strings.Join(headers, "\r\n") + "\r\n")

	return smtp.SendMail(es.smtpHost+":"+es.smtpPort, auth, es.from, []string{to}, msg)
}
