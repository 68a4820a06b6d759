package main

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/quillsign/quillsign/cmd/ui/api"
)

// Messages emitted by API commands

type documentsLoadedMsg struct {
	documents []api.Document
}

type documentLoadedMsg struct {
	aggregate *api.Aggregate
}

type actionDoneMsg struct {
	aggregate *api.Aggregate
	message   string
}

type documentDeletedMsg struct{}

type auditLoadedMsg struct {
	entries []api.AuditEntry
}

type errMsg struct {
	err error
}

func loadDocuments(client *api.Client) tea.Cmd {
	return func() tea.Msg {
		docs, err := client.ListDocuments()
		if err != nil {
			return errMsg{err}
		}
		return documentsLoadedMsg{documents: docs}
	}
}

func loadDocument(client *api.Client, id string) tea.Cmd {
	return func() tea.Msg {
		agg, err := client.GetDocument(id)
		if err != nil {
			return errMsg{err}
		}
		return documentLoadedMsg{aggregate: agg}
	}
}

func createDocument(client *api.Client, req api.CreateDocumentRequest) tea.Cmd {
	return func() tea.Msg {
		agg, err := client.CreateDocument(req)
		if err != nil {
			return errMsg{err}
		}
		return actionDoneMsg{aggregate: agg, message: "document created"}
	}
}

func deleteDocument(client *api.Client, id string) tea.Cmd {
	return func() tea.Msg {
		if err := client.DeleteDocument(id); err != nil {
			return errMsg{err}
		}
		return documentDeletedMsg{}
	}
}

func sendDocument(client *api.Client, id string) tea.Cmd {
	return func() tea.Msg {
		agg, err := client.SendDocument(id)
		if err != nil {
			return errMsg{err}
		}
		return actionDoneMsg{aggregate: agg, message: "document sent to signers"}
	}
}

func addSigner(client *api.Client, documentID string, req api.AddSignerRequest) tea.Cmd {
	return func() tea.Msg {
		agg, err := client.AddSigner(documentID, req)
		if err != nil {
			return errMsg{err}
		}
		return actionDoneMsg{aggregate: agg, message: "signer added"}
	}
}

func recordView(client *api.Client, documentID, signerID string) tea.Cmd {
	return func() tea.Msg {
		agg, err := client.RecordView(documentID, signerID)
		if err != nil {
			return errMsg{err}
		}
		return actionDoneMsg{aggregate: agg, message: "view recorded"}
	}
}

func completeTurn(client *api.Client, documentID, signerID string) tea.Cmd {
	return func() tea.Msg {
		agg, err := client.CompleteTurn(documentID, signerID)
		if err != nil {
			return errMsg{err}
		}
		return actionDoneMsg{aggregate: agg, message: "signer completed"}
	}
}

func decline(client *api.Client, documentID, signerID, reason string) tea.Cmd {
	return func() tea.Msg {
		agg, err := client.Decline(documentID, signerID, reason)
		if err != nil {
			return errMsg{err}
		}
		return actionDoneMsg{aggregate: agg, message: "declined"}
	}
}

func loadAudit(client *api.Client, documentID string) tea.Cmd {
	return func() tea.Msg {
		entries, err := client.GetAudit(documentID)
		if err != nil {
			return errMsg{err}
		}
		return auditLoadedMsg{entries: entries}
	}
}
