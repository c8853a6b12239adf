// Package present maps a checker snapshot to a display model. Nothing here
// performs I/O except Render.
package present

import (
	"strconv"
	"strings"
	"sync"

	"github.com/WessleyAI/vincheck/engine/checker"
	"github.com/WessleyAI/vincheck/engine/domain"
)

// Section identifies a collapsible panel.
type Section int

const (
	SectionVehicle Section = iota
	SectionRecalls
	SectionComplaints
)

func (s Section) String() string {
	switch s {
	case SectionVehicle:
		return "vehicle"
	case SectionRecalls:
		return "recalls"
	case SectionComplaints:
		return "complaints"
	default:
		return "unknown"
	}
}

// ParseSection maps a section name back to its Section.
func ParseSection(name string) (Section, bool) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "vehicle":
		return SectionVehicle, true
	case "recalls":
		return SectionRecalls, true
	case "complaints":
		return SectionComplaints, true
	}
	return 0, false
}

const (
	vehicleTitle    = "Vehicle Information"
	recallsTitle    = "Safety Recalls"
	complaintsTitle = "Safety Concerns"

	recallsLoading    = "Checking for recalls..."
	complaintsLoading = "Checking for safety concerns..."
	recallsEmpty      = "No open recalls found for this vehicle."
	complaintsEmpty   = "No reported safety concerns found for this vehicle."

	noDescription = "No description available"
)

type Input struct {
	Text  string `json:"text"`
	Count int    `json:"count"`
}

type Row struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

type Item struct {
	Number      string `json:"number"`
	Date        string `json:"date"`
	Component   string `json:"component"`
	Description string `json:"description"`
	Expanded    bool   `json:"expanded"`
	Toggle      bool   `json:"toggle"`
}

// Panel is one collapsible section. Loading panels carry only Title and
// Message.
type Panel struct {
	Section  Section `json:"-"`
	Title    string  `json:"title"`
	Subtitle string  `json:"subtitle,omitempty"`
	Badge    string  `json:"badge,omitempty"`
	Loading  bool    `json:"loading"`
	Message  string  `json:"message,omitempty"`
	Expanded bool    `json:"expanded"`
	Rows     []Row   `json:"rows,omitempty"`
	Items    []Item  `json:"items,omitempty"`
}

type View struct {
	Cycle       uint64 `json:"cycle"`
	Input       Input  `json:"input"`
	Busy        bool   `json:"busy"`
	ErrorBanner string `json:"error,omitempty"`
	Vehicle     *Panel `json:"vehicle,omitempty"`
	Recalls     *Panel `json:"recalls,omitempty"`
	Complaints  *Panel `json:"complaints,omitempty"`
}

// UIState holds the user's expand/collapse choices for one cycle. It resets
// itself the first time Build sees a different cycle. Safe for concurrent use.
type UIState struct {
	mu       sync.Mutex
	cycle    uint64
	sections map[Section]bool
	items    map[Section]map[int]bool
}

// NewUIState returns a UIState with default section flags.
func NewUIState() *UIState {
	u := &UIState{}
	u.Reset()
	return u
}

// Reset restores defaults: vehicle expanded, lists collapsed, no items open.
func (u *UIState) Reset() {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.reset()
}

func (u *UIState) reset() {
	u.sections = map[Section]bool{SectionVehicle: true}
	u.items = map[Section]map[int]bool{}
}

// ToggleSection flips a panel's expanded flag.
func (u *UIState) ToggleSection(s Section) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.init()
	u.sections[s] = !u.sections[s]
}

// ToggleItem flips the expanded flag of the item at index i (0-based).
func (u *UIState) ToggleItem(s Section, i int) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.init()
	m := u.items[s]
	if m == nil {
		m = map[int]bool{}
		u.items[s] = m
	}
	m[i] = !m[i]
}

func (u *UIState) init() {
	if u.sections == nil {
		u.reset()
	}
}

// observe resets the state when cycle is new and returns a copy of the flags.
func (u *UIState) observe(cycle uint64) (map[Section]bool, map[Section]map[int]bool) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.init()
	if cycle != u.cycle {
		u.cycle = cycle
		u.reset()
	}
	sections := make(map[Section]bool, len(u.sections))
	for k, v := range u.sections {
		sections[k] = v
	}
	items := make(map[Section]map[int]bool, len(u.items))
	for s, m := range u.items {
		cp := make(map[int]bool, len(m))
		for k, v := range m {
			cp[k] = v
		}
		items[s] = cp
	}
	return sections, items
}

// Build maps the input text, snapshot, and UI flags to a View. A nil ui uses
// defaults.
func Build(input string, snap checker.Snapshot, ui *UIState) View {
	if ui == nil {
		ui = NewUIState()
	}
	sections, items := ui.observe(snap.Cycle)

	v := View{
		Cycle: snap.Cycle,
		Input: Input{Text: input, Count: min(domain.CharCount(input), domain.VINLength)},
		Busy:  snap.Phase == checker.PhaseValidating || snap.Phase == checker.PhaseDecoding,
	}
	if snap.Phase == checker.PhaseDecodeFailed && snap.Failure != nil {
		v.ErrorBanner = snap.Failure.Message
	}
	if snap.Vehicle != nil {
		v.Vehicle = vehiclePanel(*snap.Vehicle, sections[SectionVehicle])
	}

	recalls := make([]Item, len(snap.Recalls))
	for i, r := range snap.Recalls {
		recalls[i] = Item{
			Date:        orNA(r.ReportReceivedDate),
			Component:   orNA(r.Component),
			Description: firstNonEmpty(r.Summary, r.Consequence, noDescription),
		}
	}
	v.Recalls = listPanel(SectionRecalls, recallsTitle, recallsLoading, recallsEmpty,
		snap.RecallState, recalls, sections[SectionRecalls], items[SectionRecalls])

	complaints := make([]Item, len(snap.Complaints))
	for i, c := range snap.Complaints {
		complaints[i] = Item{
			Date:        orNA(c.DateComplaintFiled),
			Component:   orNA(c.Components),
			Description: orNA(c.Summary),
		}
	}
	v.Complaints = listPanel(SectionComplaints, complaintsTitle, complaintsLoading, complaintsEmpty,
		snap.ComplaintState, complaints, sections[SectionComplaints], items[SectionComplaints])
	return v
}

func vehiclePanel(s domain.VehicleSummary, expanded bool) *Panel {
	return &Panel{
		Section:  SectionVehicle,
		Title:    vehicleTitle,
		Subtitle: s.ModelYear + " " + s.Make + " " + s.Model,
		Expanded: expanded,
		Rows: []Row{
			{"Make", s.Make},
			{"Model", s.Model},
			{"Year", s.ModelYear},
			{"Trim", s.Trim},
			{"Engine", s.EngineModel},
			{"Body Style", s.BodyClass},
			{"Made In", madeIn(s.PlantState, s.PlantCountry)},
		},
	}
}

func listPanel(sec Section, title, loading, empty string, state checker.PanelState,
	items []Item, expanded bool, open map[int]bool) *Panel {
	switch state {
	case checker.PanelPending:
		return nil
	case checker.PanelLoading:
		return &Panel{Section: sec, Title: title, Loading: true, Message: loading}
	}

	p := &Panel{Section: sec, Title: title, Expanded: expanded, Badge: badge(len(items))}
	if len(items) == 0 {
		p.Message = empty
		return p
	}
	single := len(items) == 1
	for i := range items {
		items[i].Number = "#" + strconv.Itoa(i+1)
		items[i].Expanded = single || open[i]
		items[i].Toggle = !single
	}
	p.Items = items
	return p
}

func badge(n int) string {
	if n == 0 {
		return "None found"
	}
	return strconv.Itoa(n) + " found"
}

// madeIn joins state and country, dropping unknown parts.
func madeIn(state, country string) string {
	var parts []string
	for _, p := range []string{state, country} {
		if p = strings.TrimSpace(p); p != "" && p != domain.NotAvailable {
			parts = append(parts, p)
		}
	}
	if len(parts) == 0 {
		return domain.NotAvailable
	}
	return strings.Join(parts, ", ")
}

func orNA(s string) string {
	if strings.TrimSpace(s) == "" {
		return domain.NotAvailable
	}
	return s
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
