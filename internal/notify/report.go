package notify

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"fmt"
	htmltemplate "html/template"
	texttemplate "text/template"
)

//go:embed templates/*
var templatesFS embed.FS

var (
	htmlTemplates = htmltemplate.Must(htmltemplate.ParseFS(templatesFS, "templates/*.html"))
	textTemplates = texttemplate.Must(texttemplate.ParseFS(templatesFS, "templates/*.txt"))
)

// Cluster availability as shown in reports.
const (
	StatusAvailable    = "Available"
	StatusNotAvailable = "Not Available"
)

// Report describes one cluster at the end of a deployment.
type Report struct {
	RunID      string
	Cluster    string
	Username   string
	Password   string
	Role       string
	Available  bool
	Version    string
	ConsoleURL string
	Server     string
	// Kubeconfig is attached to emails when present.
	Kubeconfig []byte
}

// Status returns the human readable availability.
func (r Report) Status() string {
	if r.Available {
		return StatusAvailable
	}
	return StatusNotAvailable
}

// LoginCommand returns the oc login command line for the cluster.
func (r Report) LoginCommand() string {
	return fmt.Sprintf("oc login %s -u %s -p %s", r.Server, r.Username, r.Password)
}

// Subject returns the notification subject line.
func (r Report) Subject() string {
	return fmt.Sprintf("ocp4mco-ci cluster deployment (RUN ID: %s)", r.RunID)
}

// Sender delivers a report.
type Sender interface {
	Send(ctx context.Context, r Report) error
}

// Multi sends a report through every sender and joins their errors.
type Multi []Sender

// Send implements Sender.
func (m Multi) Send(ctx context.Context, r Report) error {
	var errs []error
	for _, s := range m {
		if err := s.Send(ctx, r); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func renderHTML(name string, r Report) (string, error) {
	var buf bytes.Buffer
	if err := htmlTemplates.ExecuteTemplate(&buf, name, r); err != nil {
		return "", fmt.Errorf("failed to render %s: %w", name, err)
	}
	return buf.String(), nil
}

func renderText(name string, r Report) (string, error) {
	var buf bytes.Buffer
	if err := textTemplates.ExecuteTemplate(&buf, name, r); err != nil {
		return "", fmt.Errorf("failed to render %s: %w", name, err)
	}
	return buf.String(), nil
}
