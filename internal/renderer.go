package internal

// Renderer receives display notifications from the Store
type Renderer interface {
	OnSessionCleared()
	OnMessageAppended(msg Message)
	OnHistoryReplaced(messages []Message)
	OnSessionListChanged(sessions []SessionSummary)
}

// NopRenderer ignores every notification
type NopRenderer struct{}

func (NopRenderer) OnSessionCleared()                     {}
func (NopRenderer) OnMessageAppended(Message)             {}
func (NopRenderer) OnHistoryReplaced([]Message)           {}
func (NopRenderer) OnSessionListChanged([]SessionSummary) {}
