package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/cfoust/modswap/pkg/game"
	"github.com/cfoust/modswap/pkg/menu"
	"github.com/cfoust/modswap/pkg/mods"
	"github.com/cfoust/modswap/pkg/utils"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const selectFrame = 16 * time.Millisecond

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#90EE90"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))
)

type packItem struct {
	button menu.Button
}

func (p packItem) Title() string {
	if p.button.Active {
		return "● " + p.button.Label
	}
	return "  " + p.button.Label
}

func (p packItem) Description() string {
	if p.button.Default {
		return "built in"
	}
	return p.button.Source
}

func (p packItem) FilterValue() string { return p.button.Label }

type buttonsMsg []menu.Button

type packsChangedMsg []menu.Button

type selectedMsg struct {
	name string
	err  error
}

type selectModel struct {
	session    *game.Session
	subscriber *utils.Subscriber[[]mods.PackInfo]
	list       list.Model
	status     string
	err        error
}

// buttons reads the menu on the loop goroutine.
func (m *selectModel) buttons() tea.Msg {
	result := make(chan []menu.Button, 1)
	m.session.Loop.Post(func() {
		result <- m.session.Menu.Buttons()
	})
	return buttonsMsg(<-result)
}

// waitForPacks turns the next pack list change into a refresh.
func (m *selectModel) waitForPacks() tea.Msg {
	if _, ok := <-m.subscriber.Recv(); !ok {
		return nil
	}
	return packsChangedMsg(m.buttons().(buttonsMsg))
}

func (m *selectModel) activate(name string) tea.Cmd {
	return func() tea.Msg {
		result := make(chan error, 1)
		m.session.Loop.Post(func() {
			result <- m.session.Menu.Select(name)
		})
		return selectedMsg{name: name, err: <-result}
	}
}

func (m *selectModel) setButtons(buttons []menu.Button) tea.Cmd {
	items := make([]list.Item, 0, len(buttons))
	for _, button := range buttons {
		items = append(items, packItem{button: button})
	}
	return m.list.SetItems(items)
}

func (m *selectModel) Init() tea.Cmd {
	return tea.Batch(m.buttons, m.waitForPacks)
}

func (m *selectModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.list.SetSize(msg.Width, msg.Height-2)
		return m, nil

	case tea.KeyMsg:
		if m.list.FilterState() == list.Filtering {
			break
		}

		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		case "enter":
			item, ok := m.list.SelectedItem().(packItem)
			if !ok {
				return m, nil
			}
			return m, m.activate(item.button.Label)
		}

	case buttonsMsg:
		return m, m.setButtons(msg)

	case packsChangedMsg:
		return m, tea.Batch(m.setButtons(msg), m.waitForPacks)

	case selectedMsg:
		m.err = msg.err
		if msg.err == nil {
			m.status = fmt.Sprintf("activated %s", msg.name)
		}
		return m, m.buttons
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m *selectModel) View() string {
	footer := statusStyle.Render(m.status)
	if m.err != nil {
		footer = errorStyle.Render(m.err.Error())
	}
	return m.list.View() + "\n" + footer
}

func selectCommand(configs []string) error {
	// The menu owns the terminal, so logs would only garble it.
	if !CLI.Debug {
		log.Logger = zerolog.New(io.Discard)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	session, err := startSession(ctx, configs)
	if err != nil {
		return err
	}

	subscriber := session.Registry.Subscribe()
	defer subscriber.Done()

	go session.Loop.Run(ctx, selectFrame)

	packs := list.New(nil, list.NewDefaultDelegate(), 0, 0)
	packs.Title = "Packs"
	packs.Styles.Title = titleStyle

	model := &selectModel{
		session:    session,
		subscriber: subscriber,
		list:       packs,
	}

	_, err = tea.NewProgram(model, tea.WithAltScreen()).Run()
	return err
}
