package command

import "strings"

// Macro runs several commands as a single undo unit. Children are undone in
// reverse order so each one sees the state it left behind.
type Macro struct {
	commands []Command
}

func NewMacro(commands ...Command) *Macro {
	return &Macro{commands: commands}
}

func (m *Macro) Execute() {
	for _, c := range m.commands {
		c.Execute()
	}
}

func (m *Macro) Undo() {
	for i := len(m.commands) - 1; i >= 0; i-- {
		m.commands[i].Undo()
	}
}

func (m *Macro) Len() int { return len(m.commands) }

func (m *Macro) Description() string {
	parts := make([]string, 0, len(m.commands))
	for _, c := range m.commands {
		parts = append(parts, c.Description())
	}
	return strings.Join(parts, "; ")
}
