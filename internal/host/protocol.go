package host

import (
	"github.com/task-agents/native-host/internal/agents"
	"github.com/task-agents/native-host/internal/history"
)

// Actions understood by the host.
const (
	ActionGetFilePath       = "getFilePath"
	ActionGetFolderPath     = "getFolderPath"
	ActionGetAgents         = "getAgents"
	ActionSaveCommand       = "saveCommand"
	ActionGetCommandHistory = "getCommandHistory"
)

// Request is a message from the extension.
type Request struct {
	Action      string         `json:"action"`
	Filename    string         `json:"filename,omitempty"`
	Foldername  string         `json:"foldername,omitempty"`
	SearchPaths []string       `json:"searchPaths,omitempty"`
	Data        *history.Entry `json:"data,omitempty"`
}

// AgentsResponse answers getAgents.
type AgentsResponse struct {
	Success bool                `json:"success"`
	Agents  []agents.Descriptor `json:"agents"`
}

// HistoryResponse answers getCommandHistory.
type HistoryResponse struct {
	Success bool            `json:"success"`
	Data    []history.Entry `json:"data"`
}

// SaveResponse answers saveCommand with the stored entry.
type SaveResponse struct {
	Success bool           `json:"success"`
	Data    *history.Entry `json:"data,omitempty"`
}
