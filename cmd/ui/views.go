package main

import (
	"fmt"
	"strings"

	"github.com/quillsign/quillsign/cmd/ui/ui"
)

// View renders the current screen
func (m Model) View() string {
	var b strings.Builder

	switch m.view {
	case ui.ViewDocuments:
		b.WriteString(m.renderDocuments())
	case ui.ViewDocumentDetail:
		b.WriteString(m.renderDetail())
	case ui.ViewDocumentCreate:
		b.WriteString(m.renderForm("New Document", "Enter to save, Esc to cancel"))
	case ui.ViewSignerAdd:
		b.WriteString(m.renderForm("Add Signer", "Enter to save, Esc to cancel"))
	case ui.ViewDecline:
		b.WriteString(m.renderForm("Decline Document", "Enter to confirm, Esc to cancel"))
	case ui.ViewAudit:
		b.WriteString(m.renderAudit())
	}

	if m.message != "" {
		b.WriteString("\n")
		b.WriteString(ui.MessageStyle(m.messageType).Render(m.message))
	}

	return b.String()
}

func (m Model) renderDocuments() string {
	var b strings.Builder
	b.WriteString(ui.TitleStyle.Render("QuillSign — Documents"))
	b.WriteString("\n\n")

	if len(m.documents) == 0 {
		b.WriteString(ui.MutedStyle.Render("No documents yet. Press n to create one."))
		b.WriteString("\n")
	} else {
		b.WriteString(ui.HeaderStyle.Render(fmt.Sprintf("  %-38s %-10s %-12s %s", "TITLE", "STATUS", "TYPE", "PREPARED")))
		b.WriteString("\n")
		for i, doc := range m.documents {
			line := fmt.Sprintf("  %-38s %-10s %-12s %s",
				truncate(doc.Title, 38), doc.Status, doc.Type, doc.PreparedAt)
			if i == m.cursor {
				b.WriteString(ui.SelectedStyle.Render("> " + line[2:]))
			} else {
				b.WriteString(ui.NormalStyle.Render(line))
			}
			b.WriteString("\n")
		}
	}

	b.WriteString(ui.HelpStyle.Render("enter: open • n: new • r: refresh • q: quit"))
	return b.String()
}

func (m Model) renderDetail() string {
	if m.selected == nil {
		return ui.MutedStyle.Render("No document selected.")
	}

	doc := m.selected.Document
	var b strings.Builder
	b.WriteString(ui.TitleStyle.Render("Document: " + doc.Title))
	b.WriteString("\n\n")

	b.WriteString(fmt.Sprintf("  Status:     %s\n", ui.StatusStyle(doc.Status).Render(doc.Status)))
	b.WriteString(fmt.Sprintf("  Type:       %s\n", doc.Type))
	b.WriteString(fmt.Sprintf("  Sequential: %v\n", doc.SequentialSigning))
	if doc.ExpiresAt != nil {
		b.WriteString(fmt.Sprintf("  Expires:    %s\n", *doc.ExpiresAt))
	}
	b.WriteString("\n")

	b.WriteString(ui.HeaderStyle.Render("  SIGNERS"))
	b.WriteString("\n")
	if len(m.selected.Signers) == 0 {
		b.WriteString(ui.MutedStyle.Render("  none — press a to add"))
		b.WriteString("\n")
	}
	for i, s := range m.selected.Signers {
		status := ui.StatusStyle(s.Status).Render(s.Status)
		line := fmt.Sprintf("  %d. %-30s %s", s.Order, truncate(s.Email, 30), status)
		if s.DeclineReason != nil {
			line += ui.MutedStyle.Render(" (" + *s.DeclineReason + ")")
		}
		if i == m.signerCursor {
			b.WriteString("> " + line[2:])
		} else {
			b.WriteString(line)
		}
		b.WriteString("\n")
	}
	b.WriteString("\n")

	b.WriteString(ui.HeaderStyle.Render("  FIELDS"))
	b.WriteString("\n")
	if len(m.selected.Fields) == 0 {
		b.WriteString(ui.MutedStyle.Render("  none"))
		b.WriteString("\n")
	}
	for _, f := range m.selected.Fields {
		value := ""
		if f.Value != nil {
			value = *f.Value
		}
		required := " "
		if f.Required {
			required = "*"
		}
		b.WriteString(fmt.Sprintf("  %s %-10s %-24s %s\n",
			required, f.Type, truncate(f.Label, 24), ui.MutedStyle.Render(value)))
	}

	b.WriteString(ui.HelpStyle.Render(
		"a: add signer • s: send • v: mark viewed • c: complete • d: decline • u: audit • x: delete • r: refresh • esc: back"))
	return b.String()
}

func (m Model) renderForm(title, hint string) string {
	var b strings.Builder
	b.WriteString(ui.TitleStyle.Render(title))
	b.WriteString("\n\n")
	for i := range m.inputs {
		b.WriteString("  " + m.inputs[i].View())
		b.WriteString("\n")
	}
	b.WriteString(ui.HelpStyle.Render(hint))
	return b.String()
}

func (m Model) renderAudit() string {
	var b strings.Builder
	b.WriteString(ui.TitleStyle.Render("Audit Trail"))
	b.WriteString("\n\n")

	if len(m.audit) == 0 {
		b.WriteString(ui.MutedStyle.Render("  no entries"))
		b.WriteString("\n")
	}
	for _, e := range m.audit {
		b.WriteString(fmt.Sprintf("  %-20s %-12s %s\n", e.Timestamp, e.Action, ui.MutedStyle.Render(e.ActorID)))
	}

	b.WriteString(ui.HelpStyle.Render("esc: back"))
	return b.String()
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	if max <= 3 {
		return string(runes[:max])
	}
	return string(runes[:max-3]) + "..."
}
