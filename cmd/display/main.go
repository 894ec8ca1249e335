package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"net"
	"sort"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/betbot/roadbot/internal/domain"
	"github.com/betbot/roadbot/internal/events"
	"github.com/betbot/roadbot/internal/transport"
)

var (
	// 样式定义
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("15")).
			Background(lipgloss.Color("62")).
			Padding(0, 1)

	bankerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("1")) // 红色（庄）

	playerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("4")) // 蓝色（闲）

	tieStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("2")) // 绿色（和）

	betStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("11"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))

	borderStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("238")).
			Padding(0, 1)
)

// tableView 单桌展示状态
type tableView struct {
	lastLog *domain.DecisionLog
	road    []domain.Outcome
}

// model 应用程序状态
type model struct {
	addr      string
	connected bool
	err       error
	tables    map[string]*tableView
}

// decisionMsg 收到一条决策日志
type decisionMsg *domain.DecisionLog

// connStateMsg 连接状态变化
type connStateMsg struct {
	connected bool
	err       error
}

func newModel(addr string) model {
	return model{addr: addr, tables: make(map[string]*tableView)}
}

func (m model) Init() tea.Cmd { return nil }

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		}

	case connStateMsg:
		m.connected = msg.connected
		m.err = msg.err

	case decisionMsg:
		dlog := (*domain.DecisionLog)(msg)
		tv, ok := m.tables[dlog.Table]
		if !ok {
			tv = &tableView{}
			m.tables[dlog.Table] = tv
		}
		if dlog.Round <= 1 {
			tv.road = tv.road[:0] // 换鞋
		}
		tv.lastLog = dlog
		tv.road = append(tv.road, dlog.Outcome)
		if len(tv.road) > 40 {
			tv.road = tv.road[len(tv.road)-40:]
		}
	}
	return m, nil
}

func outcomeCell(o domain.Outcome) string {
	switch o {
	case domain.OutcomeBanker:
		return bankerStyle.Render("B")
	case domain.OutcomePlayer:
		return playerStyle.Render("P")
	default:
		return tieStyle.Render("T")
	}
}

func (m model) View() string {
	s := headerStyle.Render("RoadBet 实况") + "  "
	if m.connected {
		s += dimStyle.Render(fmt.Sprintf("已连接 %s", m.addr))
	} else if m.err != nil {
		s += dimStyle.Render(fmt.Sprintf("连接断开: %v", m.err))
	} else {
		s += dimStyle.Render("连接中...")
	}
	s += "\n\n"

	names := make([]string, 0, len(m.tables))
	for name := range m.tables {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		tv := m.tables[name]
		dlog := tv.lastLog
		road := ""
		for _, o := range tv.road {
			road += outcomeCell(o)
		}

		line := fmt.Sprintf("%s  第%d轮  净利 %+.2f  conf %.2f\n%s\n",
			name, dlog.Round, dlog.NetProfit, dlog.Confidence, road)
		if dlog.Decision.Units > 0 {
			line += betStyle.Render(fmt.Sprintf("▶ 下 %s %d 单位", dlog.Decision.BetOn, dlog.Decision.Units))
		} else {
			line += dimStyle.Render("▷ " + dlog.Decision.Reason)
		}
		s += borderStyle.Render(line) + "\n"
	}

	s += "\n" + dimStyle.Render("q 退出")
	return s
}

// readLoop 持续从转发端读帧，断线自动重连
func readLoop(p *tea.Program, addr string) {
	for {
		conn, err := net.Dial("tcp", addr)
		if err != nil {
			p.Send(connStateMsg{connected: false, err: err})
			time.Sleep(2 * time.Second)
			continue
		}
		p.Send(connStateMsg{connected: true})

		fr := transport.NewFrameReader()
		buf := make([]byte, 64<<10)
		for {
			n, err := conn.Read(buf)
			if err != nil {
				p.Send(connStateMsg{connected: false, err: err})
				_ = conn.Close()
				break
			}
			frames, err := fr.Feed(buf[:n])
			if err != nil {
				// 流已不可信，重连重来
				p.Send(connStateMsg{connected: false, err: err})
				_ = conn.Close()
				break
			}
			for _, frame := range frames {
				var ev events.DecisionEvent
				if err := json.Unmarshal(frame, &ev); err != nil || ev.Log == nil {
					continue // 坏帧丢弃
				}
				p.Send(decisionMsg(ev.Log))
			}
		}
		time.Sleep(time.Second)
	}
}

func main() {
	addr := flag.String("addr", "127.0.0.1:7311", "转发端地址")
	flag.Parse()

	p := tea.NewProgram(newModel(*addr), tea.WithAltScreen())
	go readLoop(p, *addr)

	if _, err := p.Run(); err != nil {
		fmt.Println("运行失败:", err)
	}
}
