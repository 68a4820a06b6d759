package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/quillsign/quillsign/cmd/ui/api"
	"github.com/quillsign/quillsign/cmd/ui/ui"
)

// Model is the main application model
type Model struct {
	client      *api.Client
	view        ui.ViewState
	cursor      int
	message     string
	messageType string

	// Data
	documents []api.Document
	selected  *api.Aggregate
	audit     []api.AuditEntry

	// Signer cursor within the detail view
	signerCursor int

	// Form inputs
	inputs     []textinput.Model
	focusIndex int

	// Window size
	width  int
	height int
}

func initialModel() Model {
	baseURL := os.Getenv("QUILLSIGN_API_URL")
	if baseURL == "" {
		baseURL = "http://localhost:8080"
	}

	client, err := api.NewClient(baseURL)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: invalid API URL %q: %v\n", baseURL, err)
		os.Exit(1)
	}

	if token := os.Getenv("QUILLSIGN_TOKEN"); token != "" {
		client.SetToken(token)
	}

	return Model{
		client: client,
		view:   ui.ViewDocuments,
		width:  80,
		height: 24,
	}
}

// Init starts the first document load
func (m Model) Init() tea.Cmd {
	return loadDocuments(m.client)
}

// Update handles messages and key events
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case documentsLoadedMsg:
		m.documents = msg.documents
		if m.cursor >= len(m.documents) {
			m.cursor = 0
		}
		return m, nil

	case documentLoadedMsg:
		m.selected = msg.aggregate
		if m.signerCursor >= len(m.selected.Signers) {
			m.signerCursor = 0
		}
		m.view = ui.ViewDocumentDetail
		return m, nil

	case actionDoneMsg:
		m.selected = msg.aggregate
		m.message = msg.message
		m.messageType = ui.MessageTypeSuccess
		return m, loadDocuments(m.client)

	case documentDeletedMsg:
		m.selected = nil
		m.message = "document deleted"
		m.messageType = ui.MessageTypeSuccess
		m.view = ui.ViewDocuments
		return m, loadDocuments(m.client)

	case auditLoadedMsg:
		m.audit = msg.entries
		m.view = ui.ViewAudit
		return m, nil

	case errMsg:
		m.message = msg.err.Error()
		m.messageType = ui.MessageTypeError
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// Form views route keys to the inputs
	switch m.view {
	case ui.ViewDocumentCreate, ui.ViewSignerAdd, ui.ViewDecline:
		return m.handleFormKey(msg)
	}

	switch msg.String() {
	case "ctrl+c", "q":
		return m, tea.Quit

	case "up", "k":
		if m.view == ui.ViewDocumentDetail {
			if m.signerCursor > 0 {
				m.signerCursor--
			}
		} else if m.cursor > 0 {
			m.cursor--
		}

	case "down", "j":
		if m.view == ui.ViewDocumentDetail {
			if m.selected != nil && m.signerCursor < len(m.selected.Signers)-1 {
				m.signerCursor++
			}
		} else if m.cursor < len(m.documents)-1 {
			m.cursor++
		}

	case "enter":
		if m.view == ui.ViewDocuments && m.cursor < len(m.documents) {
			return m, loadDocument(m.client, m.documents[m.cursor].ID)
		}

	case "esc":
		switch m.view {
		case ui.ViewDocumentDetail, ui.ViewAudit:
			if m.view == ui.ViewAudit && m.selected != nil {
				m.view = ui.ViewDocumentDetail
			} else {
				m.view = ui.ViewDocuments
			}
			m.message = ""
		}

	case "r":
		if m.view == ui.ViewDocuments {
			return m, loadDocuments(m.client)
		}
		if m.view == ui.ViewDocumentDetail && m.selected != nil {
			return m, loadDocument(m.client, m.selected.Document.ID)
		}

	case "n":
		if m.view == ui.ViewDocuments {
			m.inputs = newCreateForm()
			m.focusIndex = 0
			m.view = ui.ViewDocumentCreate
		}

	case "a":
		if m.view == ui.ViewDocumentDetail {
			m.inputs = newSignerForm()
			m.focusIndex = 0
			m.view = ui.ViewSignerAdd
		}

	case "s":
		if m.view == ui.ViewDocumentDetail && m.selected != nil {
			return m, sendDocument(m.client, m.selected.Document.ID)
		}

	case "v":
		if s, ok := m.currentSigner(); ok {
			return m, recordView(m.client, m.selected.Document.ID, s.ID)
		}

	case "c":
		if s, ok := m.currentSigner(); ok {
			return m, completeTurn(m.client, m.selected.Document.ID, s.ID)
		}

	case "d":
		if _, ok := m.currentSigner(); ok {
			m.inputs = newDeclineForm()
			m.focusIndex = 0
			m.view = ui.ViewDecline
		}

	case "x":
		if m.view == ui.ViewDocumentDetail && m.selected != nil {
			return m, deleteDocument(m.client, m.selected.Document.ID)
		}

	case "u":
		if m.view == ui.ViewDocumentDetail && m.selected != nil {
			return m, loadAudit(m.client, m.selected.Document.ID)
		}
	}

	return m, nil
}

func (m Model) handleFormKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit

	case "esc":
		if m.view == ui.ViewDocumentCreate {
			m.view = ui.ViewDocuments
		} else {
			m.view = ui.ViewDocumentDetail
		}
		m.message = ""
		return m, nil

	case "tab", "shift+tab", "up", "down":
		if msg.String() == "up" || msg.String() == "shift+tab" {
			m.focusIndex--
		} else {
			m.focusIndex++
		}
		if m.focusIndex < 0 {
			m.focusIndex = len(m.inputs) - 1
		}
		if m.focusIndex >= len(m.inputs) {
			m.focusIndex = 0
		}
		for i := range m.inputs {
			if i == m.focusIndex {
				m.inputs[i].Focus()
			} else {
				m.inputs[i].Blur()
			}
		}
		return m, nil

	case "enter":
		return m.submitForm()
	}

	var cmd tea.Cmd
	m.inputs[m.focusIndex], cmd = m.inputs[m.focusIndex].Update(msg)
	return m, cmd
}

func (m Model) submitForm() (tea.Model, tea.Cmd) {
	switch m.view {
	case ui.ViewDocumentCreate:
		title := m.inputs[0].Value()
		if title == "" {
			m.message = "title is required"
			m.messageType = ui.MessageTypeError
			return m, nil
		}
		req := api.CreateDocumentRequest{
			Title:             title,
			Description:       m.inputs[1].Value(),
			SequentialSigning: m.inputs[2].Value() == "y",
		}
		m.view = ui.ViewDocuments
		return m, createDocument(m.client, req)

	case ui.ViewSignerAdd:
		email := m.inputs[0].Value()
		if email == "" {
			m.message = "email is required"
			m.messageType = ui.MessageTypeError
			return m, nil
		}
		order, err := strconv.Atoi(m.inputs[2].Value())
		if err != nil || order < 1 {
			m.message = "order must be a positive number"
			m.messageType = ui.MessageTypeError
			return m, nil
		}
		req := api.AddSignerRequest{
			Email: email,
			Name:  m.inputs[1].Value(),
			Order: order,
		}
		m.view = ui.ViewDocumentDetail
		return m, addSigner(m.client, m.selected.Document.ID, req)

	case ui.ViewDecline:
		reason := m.inputs[0].Value()
		if reason == "" {
			m.message = "a decline reason is required"
			m.messageType = ui.MessageTypeError
			return m, nil
		}
		signer := m.selected.Signers[m.signerCursor]
		m.view = ui.ViewDocumentDetail
		return m, decline(m.client, m.selected.Document.ID, signer.ID, reason)
	}

	return m, nil
}

// currentSigner returns the signer under the cursor in the detail view
func (m Model) currentSigner() (api.Signer, bool) {
	if m.view != ui.ViewDocumentDetail || m.selected == nil {
		return api.Signer{}, false
	}
	if m.signerCursor >= len(m.selected.Signers) {
		return api.Signer{}, false
	}
	return m.selected.Signers[m.signerCursor], true
}

func newCreateForm() []textinput.Model {
	inputs := make([]textinput.Model, 3)

	title := textinput.New()
	title.Placeholder = "Title"
	title.Focus()
	inputs[0] = title

	description := textinput.New()
	description.Placeholder = "Description"
	inputs[1] = description

	sequential := textinput.New()
	sequential.Placeholder = "Sequential signing? (y/n)"
	sequential.CharLimit = 1
	inputs[2] = sequential

	return inputs
}

func newSignerForm() []textinput.Model {
	inputs := make([]textinput.Model, 3)

	email := textinput.New()
	email.Placeholder = "Email"
	email.Focus()
	inputs[0] = email

	name := textinput.New()
	name.Placeholder = "Name"
	inputs[1] = name

	order := textinput.New()
	order.Placeholder = "Signing order (1, 2, ...)"
	order.CharLimit = 3
	inputs[2] = order

	return inputs
}

func newDeclineForm() []textinput.Model {
	reason := textinput.New()
	reason.Placeholder = "Reason for declining"
	reason.Focus()
	return []textinput.Model{reason}
}

func main() {
	p := tea.NewProgram(initialModel(), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
