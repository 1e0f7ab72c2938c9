// Copyright (C) 2026 Nydas AI
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

// nydas-chat is a terminal client for the chat backend. It speaks the
// public websocket protocol and keeps no state of its own; the server
// owns the conversation history.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/gorilla/websocket"

	"github.com/nydas-ai/nydasbot/services/backend/datatypes"
)

var (
	chatBoxStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	inputBoxStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	youStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true)
	botStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true)
	errStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	statusStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

// greeting is the first frame the server sends on connect.
type greeting struct {
	Action    string `json:"action"`
	SessionID string `json:"sessionId"`
}

// answerMsg delivers a server response into the Bubble Tea loop.
type answerMsg datatypes.ChatResponse

// connClosedMsg is sent when the read pump exits.
type connClosedMsg struct{ err error }

type transcriptLine struct {
	speaker string
	text    string
	isErr   bool
}

type model struct {
	ws        *websocket.Conn
	sessionID string
	input     textinput.Model
	viewport  viewport.Model
	lines     []transcriptLine
	status    string
	waiting   bool
	ready     bool
}

func newModel(ws *websocket.Conn, sessionID string) model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Ask NydasBot something and press Enter"
	ti.Focus()
	ti.CharLimit = 0
	vp := viewport.New(0, 0)
	return model{
		ws:        ws,
		sessionID: sessionID,
		input:     ti,
		viewport:  vp,
		status:    fmt.Sprintf("Connected. Session %s.", sessionID),
	}
}

func (m model) Init() tea.Cmd { return textinput.Blink }

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		_, ch := chatBoxStyle.GetFrameSize()
		_, ih := inputBoxStyle.GetFrameSize()
		vh := msg.Height - ch - ih - 4
		if vh < 3 {
			vh = 3
		}
		m.viewport.Width = max(20, msg.Width-4)
		m.viewport.Height = vh
		m.viewport.SetContent(m.renderTranscript())
		return m, nil

	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyCtrlD {
			return m, tea.Quit
		}
		if msg.String() == "enter" && !m.waiting {
			text := strings.TrimSpace(m.input.Value())
			if text == "" {
				return m, nil
			}
			if err := m.ws.WriteJSON(datatypes.ChatRequest{
				SessionId: m.sessionID,
				Input:     text,
			}); err != nil {
				m.status = "Send failed: " + err.Error()
				return m, nil
			}
			m.lines = append(m.lines, transcriptLine{speaker: "You", text: text})
			m.input.Reset()
			m.waiting = true
			m.status = "Waiting for NydasBot..."
			m.viewport.SetContent(m.renderTranscript())
			m.viewport.GotoBottom()
			return m, nil
		}

	case answerMsg:
		m.waiting = false
		if msg.Error != "" {
			m.lines = append(m.lines, transcriptLine{speaker: "Error", text: msg.Error, isErr: true})
			m.status = "Turn failed, connection still open."
		} else {
			m.lines = append(m.lines, transcriptLine{speaker: "NydasBot", text: msg.Answer})
			m.status = fmt.Sprintf("Session %s.", m.sessionID)
		}
		m.viewport.SetContent(m.renderTranscript())
		m.viewport.GotoBottom()
		return m, nil

	case connClosedMsg:
		if msg.err != nil {
			m.status = "Disconnected: " + msg.err.Error()
		} else {
			m.status = "Disconnected."
		}
		return m, tea.Quit
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m model) View() string {
	if !m.ready {
		return "Connecting..."
	}
	header := lipgloss.NewStyle().Bold(true).Render("NydasBot")
	transcript := chatBoxStyle.Render(m.viewport.View())
	input := inputBoxStyle.Render(m.input.View())
	status := statusStyle.Render(m.status)
	return header + "\n" + transcript + "\n" + input + "\n" + status
}

func (m model) renderTranscript() string {
	if len(m.lines) == 0 {
		return "No messages yet."
	}
	var b strings.Builder
	for i, line := range m.lines {
		if i > 0 {
			b.WriteString("\n\n")
		}
		switch {
		case line.isErr:
			b.WriteString(errStyle.Render(line.speaker+": ") + line.text)
		case line.speaker == "You":
			b.WriteString(youStyle.Render(line.speaker+": ") + line.text)
		default:
			b.WriteString(botStyle.Render(line.speaker+": ") + line.text)
		}
	}
	return b.String()
}

// readPump forwards server frames into the program until the
// connection dies.
func readPump(ws *websocket.Conn, p *tea.Program) {
	for {
		_, raw, err := ws.ReadMessage()
		if err != nil {
			p.Send(connClosedMsg{err: err})
			return
		}
		var resp datatypes.ChatResponse
		if err := json.Unmarshal(raw, &resp); err != nil {
			p.Send(answerMsg(datatypes.ErrorResponse(err)))
			continue
		}
		p.Send(answerMsg(resp))
	}
}

func main() {
	serverURL := flag.String("url", "ws://localhost:12210/v1/chat/ws", "websocket URL of the chat backend")
	sessionID := flag.String("session", "", "session id to chat under (default: server-assigned)")
	flag.Parse()

	ws, _, err := websocket.DefaultDialer.Dial(*serverURL, nil)
	if err != nil {
		log.Fatalf("Failed to connect to %s: %v", *serverURL, err)
	}
	defer ws.Close()

	// The first frame carries the server-assigned session id.
	var hello greeting
	if err := ws.ReadJSON(&hello); err != nil {
		log.Fatalf("Failed to read server greeting: %v", err)
	}
	session := *sessionID
	if session == "" {
		session = hello.SessionID
	}
	if session == "" {
		session = datatypes.DefaultSessionID
	}

	p := tea.NewProgram(newModel(ws, session), tea.WithAltScreen())
	go readPump(ws, p)

	if _, err := p.Run(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
