package service_test

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/flipfolio/flipfolio-api-go/internal/domain"
)

// mockStore is an in-memory port.Store. Every row is owner-scoped the way
// the real store's query filters are, and call counters let tests assert
// when the cache kept a read away from the store.
type mockStore struct {
	mu  sync.Mutex
	err error // when set, every call fails with it

	projects map[string]*domain.Project
	items    map[string]*domain.BudgetItem
	vendors  map[string]*domain.Vendor
	draws    map[string]*domain.Draw
	pages    map[string]*domain.JournalPage

	listItemsCalls int
	createCalls    int
	draftSaves     []draftSave
	flagSets       []flagSet

	nextID int
}

type draftSave struct {
	pageID string
	fields map[string]any
}

type flagSet struct {
	pageID string
	flag   string
	value  bool
}

func newMockStore() *mockStore {
	return &mockStore{
		projects: make(map[string]*domain.Project),
		items:    make(map[string]*domain.BudgetItem),
		vendors:  make(map[string]*domain.Vendor),
		draws:    make(map[string]*domain.Draw),
		pages:    make(map[string]*domain.JournalPage),
	}
}

func (m *mockStore) id(prefix string) string {
	m.nextID++
	return prefix + "-" + strconv.Itoa(m.nextID)
}

func (m *mockStore) addProject(userID, projectID string, p domain.Project) *domain.Project {
	m.mu.Lock()
	defer m.mu.Unlock()
	p.ID = projectID
	p.UserID = userID
	m.projects[projectID] = &p
	return &p
}

func (m *mockStore) addItem(userID, projectID, itemID string, it domain.BudgetItem) {
	m.mu.Lock()
	defer m.mu.Unlock()
	it.ID = itemID
	it.ProjectID = projectID
	m.items[itemID] = &it
}

func (m *mockStore) Ping(context.Context) error { return m.err }

// --- Projects ---

func (m *mockStore) ListProjects(_ context.Context, userID string) ([]domain.Project, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	out := make([]domain.Project, 0)
	for _, p := range m.projects {
		if p.UserID == userID {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (m *mockStore) GetProject(_ context.Context, userID, projectID string) (*domain.Project, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	p := m.projects[projectID]
	if p == nil || p.UserID != userID {
		return nil, &domain.ErrNotFound{Resource: "project", ID: projectID}
	}
	cp := *p
	return &cp, nil
}

func (m *mockStore) CreateProject(_ context.Context, userID string, in *domain.ProjectInput) (*domain.Project, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.createCalls++
	if m.err != nil {
		return nil, m.err
	}
	p := &domain.Project{
		ID:            m.id("proj"),
		UserID:        userID,
		Name:          in.Name,
		ARV:           in.ARV,
		PurchasePrice: in.PurchasePrice,
		Status:        in.Status,
		CreatedAt:     time.Now(),
	}
	if p.Status == "" {
		p.Status = domain.ProjectStatusLead
	}
	m.projects[p.ID] = p
	cp := *p
	return &cp, nil
}

func (m *mockStore) UpdateProject(_ context.Context, userID, projectID string, in *domain.ProjectInput) (*domain.Project, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	p := m.projects[projectID]
	if p == nil || p.UserID != userID {
		return nil, &domain.ErrNotFound{Resource: "project", ID: projectID}
	}
	p.Name = in.Name
	p.ARV = in.ARV
	p.PurchasePrice = in.PurchasePrice
	if in.Status != "" {
		p.Status = in.Status
	}
	cp := *p
	return &cp, nil
}

func (m *mockStore) DeleteProject(_ context.Context, userID, projectID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	delete(m.projects, projectID)
	return nil
}

// --- Budget items ---

func (m *mockStore) ListBudgetItems(_ context.Context, userID, projectID string) ([]domain.BudgetItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listItemsCalls++
	if m.err != nil {
		return nil, m.err
	}
	out := make([]domain.BudgetItem, 0)
	for _, it := range m.items {
		if it.ProjectID == projectID && m.ownsProject(userID, projectID) {
			out = append(out, *it)
		}
	}
	return out, nil
}

// ownsProject mirrors the denormalized user_id filter of the real store.
func (m *mockStore) ownsProject(userID, projectID string) bool {
	p := m.projects[projectID]
	return p != nil && p.UserID == userID
}

func (m *mockStore) GetBudgetItem(_ context.Context, userID, itemID string) (*domain.BudgetItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	it := m.items[itemID]
	if it == nil || !m.ownsProject(userID, it.ProjectID) {
		return nil, &domain.ErrNotFound{Resource: "budget item", ID: itemID}
	}
	cp := *it
	return &cp, nil
}

func (m *mockStore) CreateBudgetItem(_ context.Context, userID, projectID string, in *domain.BudgetItemInput) (*domain.BudgetItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.createCalls++
	if m.err != nil {
		return nil, m.err
	}
	it := &domain.BudgetItem{
		ID:                 m.id("item"),
		ProjectID:          projectID,
		Category:           in.Category,
		Description:        in.Description,
		UnderwritingAmount: in.UnderwritingAmount,
		ForecastAmount:     in.ForecastAmount,
		ActualAmount:       in.ActualAmount,
		Status:             domain.BudgetItemNotStarted,
	}
	m.items[it.ID] = it
	cp := *it
	return &cp, nil
}

func (m *mockStore) UpdateBudgetItem(_ context.Context, userID, itemID string, patch *domain.BudgetItemPatch) (*domain.BudgetItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	it := m.items[itemID]
	if it == nil || !m.ownsProject(userID, it.ProjectID) {
		return nil, &domain.ErrNotFound{Resource: "budget item", ID: itemID}
	}
	if patch.Category != nil {
		it.Category = *patch.Category
	}
	if patch.UnderwritingAmount != nil {
		it.UnderwritingAmount = *patch.UnderwritingAmount
	}
	if patch.ForecastAmount != nil {
		it.ForecastAmount = *patch.ForecastAmount
	}
	if patch.ClearActual {
		it.ActualAmount = nil
	} else if patch.ActualAmount != nil {
		v := *patch.ActualAmount
		it.ActualAmount = &v
	}
	if patch.Status != nil {
		it.Status = *patch.Status
	}
	cp := *it
	return &cp, nil
}

func (m *mockStore) DeleteBudgetItem(_ context.Context, userID, itemID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	delete(m.items, itemID)
	return nil
}

// --- Vendors ---

func (m *mockStore) ListVendors(_ context.Context, userID string, page, pageSize int) ([]domain.Vendor, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	out := make([]domain.Vendor, 0)
	for _, v := range m.vendors {
		if v.UserID == userID {
			out = append(out, *v)
		}
	}
	return out, nil
}

func (m *mockStore) GetVendor(_ context.Context, userID, vendorID string) (*domain.Vendor, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	v := m.vendors[vendorID]
	if v == nil || v.UserID != userID {
		return nil, &domain.ErrNotFound{Resource: "vendor", ID: vendorID}
	}
	cp := *v
	return &cp, nil
}

func (m *mockStore) CreateVendor(_ context.Context, userID string, in *domain.VendorInput) (*domain.Vendor, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.createCalls++
	if m.err != nil {
		return nil, m.err
	}
	v := &domain.Vendor{ID: m.id("vend"), UserID: userID, Name: in.Name, Trade: in.Trade}
	m.vendors[v.ID] = v
	cp := *v
	return &cp, nil
}

func (m *mockStore) UpdateVendor(_ context.Context, userID, vendorID string, in *domain.VendorInput) (*domain.Vendor, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	v := m.vendors[vendorID]
	if v == nil || v.UserID != userID {
		return nil, &domain.ErrNotFound{Resource: "vendor", ID: vendorID}
	}
	v.Name = in.Name
	v.Trade = in.Trade
	cp := *v
	return &cp, nil
}

func (m *mockStore) DeleteVendor(_ context.Context, userID, vendorID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	delete(m.vendors, vendorID)
	return nil
}

// --- Draws ---

func (m *mockStore) ListDraws(_ context.Context, userID, projectID string) ([]domain.Draw, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	out := make([]domain.Draw, 0)
	for _, d := range m.draws {
		if d.ProjectID == projectID && m.ownsProject(userID, projectID) {
			out = append(out, *d)
		}
	}
	return out, nil
}

func (m *mockStore) GetDraw(_ context.Context, userID, drawID string) (*domain.Draw, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	d := m.draws[drawID]
	if d == nil || !m.ownsProject(userID, d.ProjectID) {
		return nil, &domain.ErrNotFound{Resource: "draw", ID: drawID}
	}
	cp := *d
	return &cp, nil
}

func (m *mockStore) CreateDraw(_ context.Context, userID, projectID string, in *domain.DrawInput) (*domain.Draw, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.createCalls++
	if m.err != nil {
		return nil, m.err
	}
	d := &domain.Draw{
		ID:        m.id("draw"),
		ProjectID: projectID,
		Title:     in.Title,
		Amount:    in.Amount,
		Status:    in.Status,
	}
	if d.Status == "" {
		d.Status = domain.DrawStatusScheduled
	}
	m.draws[d.ID] = d
	cp := *d
	return &cp, nil
}

func (m *mockStore) UpdateDraw(_ context.Context, userID, drawID string, patch *domain.DrawPatch) (*domain.Draw, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	d := m.draws[drawID]
	if d == nil || !m.ownsProject(userID, d.ProjectID) {
		return nil, &domain.ErrNotFound{Resource: "draw", ID: drawID}
	}
	if patch.Title != nil {
		d.Title = *patch.Title
	}
	if patch.Amount != nil {
		d.Amount = *patch.Amount
	}
	if patch.Status != nil {
		d.Status = *patch.Status
	}
	if patch.FundedDate != nil {
		if *patch.FundedDate == "" {
			d.FundedDate = nil
		} else {
			ts, err := time.Parse(time.DateOnly, *patch.FundedDate)
			if err != nil {
				return nil, err
			}
			d.FundedDate = &ts
		}
	}
	cp := *d
	return &cp, nil
}

func (m *mockStore) DeleteDraw(_ context.Context, userID, drawID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	delete(m.draws, drawID)
	return nil
}

// --- Journal ---

func (m *mockStore) ListJournalPages(_ context.Context, userID string, filter *domain.JournalFilter) ([]domain.JournalPage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	out := make([]domain.JournalPage, 0)
	for _, pg := range m.pages {
		if pg.UserID != userID {
			continue
		}
		if filter != nil {
			if filter.ProjectID != "" && pg.ProjectID != filter.ProjectID {
				continue
			}
			if filter.Pinned != nil && pg.Pinned != *filter.Pinned {
				continue
			}
			if filter.Archived != nil && pg.Archived != *filter.Archived {
				continue
			}
		}
		out = append(out, *pg)
	}
	return out, nil
}

func (m *mockStore) GetJournalPage(_ context.Context, userID, pageID string) (*domain.JournalPage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	pg := m.pages[pageID]
	if pg == nil || pg.UserID != userID {
		return nil, &domain.ErrNotFound{Resource: "journal page", ID: pageID}
	}
	cp := *pg
	return &cp, nil
}

func (m *mockStore) CreateJournalPage(_ context.Context, userID string, in *domain.JournalPageInput) (*domain.JournalPage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.createCalls++
	if m.err != nil {
		return nil, m.err
	}
	pg := &domain.JournalPage{
		ID:        m.id("page"),
		UserID:    userID,
		ProjectID: in.ProjectID,
		Title:     in.Title,
		Content:   in.Content,
	}
	m.pages[pg.ID] = pg
	cp := *pg
	return &cp, nil
}

func (m *mockStore) DeleteJournalPage(_ context.Context, userID, pageID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	delete(m.pages, pageID)
	return nil
}

func (m *mockStore) CountJournalPages(_ context.Context, userID, projectID string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return 0, m.err
	}
	n := 0
	for _, pg := range m.pages {
		if pg.UserID == userID && pg.ProjectID == projectID {
			n++
		}
	}
	return n, nil
}

func (m *mockStore) SaveJournalDraft(_ context.Context, userID, pageID string, fields map[string]any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.draftSaves = append(m.draftSaves, draftSave{pageID: pageID, fields: fields})
	return nil
}

func (m *mockStore) SetJournalFlag(_ context.Context, userID, pageID, flag string, value bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	pg := m.pages[pageID]
	if pg != nil {
		switch flag {
		case "pinned":
			pg.Pinned = value
		case "archived":
			pg.Archived = value
		}
	}
	m.flagSets = append(m.flagSets, flagSet{pageID: pageID, flag: flag, value: value})
	return nil
}

func (m *mockStore) listItemsCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.listItemsCalls
}

func (m *mockStore) draftSaveCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.draftSaves)
}
