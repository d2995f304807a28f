package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/kamal-hamza/ccw/internal/core/domain"
	"github.com/kamal-hamza/ccw/pkg/ui"
)

var (
	notificationsWatch    bool
	notificationsInterval time.Duration
)

var notificationsCmd = &cobra.Command{
	Use:     "notifications [user]",
	Aliases: []string{"notif"},
	Short:   "Show a user's notifications",
	Long: `List the notifications addressed to a user, oldest first.
Defaults to notifications.default_user.

With --watch, an interactive table refreshes as jobs run.

Controls:
  - ↑/↓ : Navigate
  - r   : Refresh now
  - q   : Quit`,
	Args: cobra.MaximumNArgs(1),
	RunE: runNotifications,
}

func init() {
	notificationsCmd.Flags().BoolVarP(&notificationsWatch, "watch", "w", false, "Keep refreshing in an interactive table")
	notificationsCmd.Flags().DurationVar(&notificationsInterval, "interval", 2*time.Second, "Refresh interval for --watch")
}

func runNotifications(cmd *cobra.Command, args []string) error {
	user := appConfig.Notifications.DefaultUser
	if len(args) == 1 {
		user = args[0]
	}

	load := func() ([]domain.Notification, error) {
		return notificationService.GetNotifications(getContext(), user)
	}

	if notificationsWatch {
		p := tea.NewProgram(newNotificationModel(user, notificationsInterval, load))
		_, err := p.Run()
		return err
	}

	items, err := load()
	if err != nil {
		return err
	}
	if len(items) == 0 {
		fmt.Println(ui.FormatInfo("No notifications for " + user))
		return nil
	}

	fmt.Println(ui.FormatHeader(ui.IconBell, "Notifications for "+user))
	t := ui.NewTable([]ui.TableColumn{
		{Header: "TIME"},
		{Header: "EVENT"},
		{Header: "MESSAGE"},
	})
	for _, row := range notificationRows(items) {
		row[1] = formatEvent(row[1])
		t.AddRow(row)
	}
	fmt.Print(t.Render())
	return nil
}

// notificationRows flattens notifications into time, event and content cells
func notificationRows(items []domain.Notification) []table.Row {
	rows := make([]table.Row, 0, len(items))
	for _, n := range items {
		event := n.Attributes[domain.AttrEvent]
		if event == "" {
			event = "-"
		}
		rows = append(rows, table.Row{
			n.CreatedAt.Local().Format("2006-01-02 15:04:05"),
			event,
			n.Content(),
		})
	}
	return rows
}

// formatEvent colors an event cell by the job phase it records
func formatEvent(event string) string {
	switch event {
	case domain.EventJobStarted:
		return ui.StyleInfo.Render(ui.IconJob + " " + event)
	case domain.EventJobFinished:
		return ui.StyleSuccess.Render(ui.IconJob + " " + event)
	default:
		return ui.FormatMuted(event)
	}
}

// --- TUI Model ---

type notificationsLoadedMsg struct {
	items []domain.Notification
	err   error
}

type refreshTickMsg time.Time

type notificationModel struct {
	table    table.Model
	user     string
	interval time.Duration
	load     func() ([]domain.Notification, error)
	count    int
	updated  time.Time
	err      error
}

func newNotificationModel(user string, interval time.Duration, load func() ([]domain.Notification, error)) notificationModel {
	if interval <= 0 {
		interval = 2 * time.Second
	}

	columns := []table.Column{
		{Title: "Time", Width: 19},
		{Title: "Event", Width: 13},
		{Title: "Message", Width: 70},
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(15),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(ui.ColorMuted).
		BorderBottom(true).
		Bold(true)
	s.Selected = s.Selected.
		Foreground(ui.ColorDefault).
		Background(ui.ColorPrimary).
		Bold(true)
	t.SetStyles(s)

	return notificationModel{
		table:    t,
		user:     user,
		interval: interval,
		load:     load,
	}
}

func (m notificationModel) Init() tea.Cmd {
	return tea.Batch(m.fetch(), m.tick())
}

func (m notificationModel) fetch() tea.Cmd {
	return func() tea.Msg {
		items, err := m.load()
		return notificationsLoadedMsg{items: items, err: err}
	}
}

func (m notificationModel) tick() tea.Cmd {
	return tea.Tick(m.interval, func(t time.Time) tea.Msg {
		return refreshTickMsg(t)
	})
}

func (m notificationModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "r":
			return m, m.fetch()
		}

	case refreshTickMsg:
		return m, tea.Batch(m.fetch(), m.tick())

	case notificationsLoadedMsg:
		m.err = msg.err
		if msg.err == nil {
			// follow the tail unless the user scrolled away from it
			atBottom := m.table.Cursor() >= m.count-1
			m.table.SetRows(notificationRows(msg.items))
			if atBottom || len(msg.items) != m.count {
				m.table.GotoBottom()
			}
			m.count = len(msg.items)
			m.updated = time.Now()
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m notificationModel) View() string {
	var b strings.Builder
	b.WriteString(ui.FormatHeader(ui.IconBell, fmt.Sprintf("Notifications for %s (%d)", m.user, m.count)))
	b.WriteString("\n\n")
	b.WriteString(m.table.View())
	b.WriteString("\n")

	if m.err != nil {
		b.WriteString(ui.FormatError(m.err.Error()))
		b.WriteString("\n")
	}

	status := "waiting for first refresh"
	if !m.updated.IsZero() {
		status = "updated " + m.updated.Format("15:04:05")
	}
	b.WriteString(ui.FormatMuted(status + "  •  ↑/↓ navigate  •  r refresh  •  q quit"))
	return b.String()
}
