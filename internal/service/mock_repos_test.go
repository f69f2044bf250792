package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"timesheet/config"
	"timesheet/internal/access"
	"timesheet/internal/model"
	"timesheet/internal/repository"
	pkgerrors "timesheet/pkg/errors"
	"timesheet/pkg/mail"
	"timesheet/pkg/week"
)

func init() {
	passwordHashCost = bcrypt.MinCost
}

var (
	errMockNotFound  = pkgerrors.Translate(gorm.ErrRecordNotFound)
	errMockDuplicate = pkgerrors.Translate(gorm.ErrDuplicatedKey)
)

// 2024-03-06 为周三
var testNow = time.Date(2024, time.March, 6, 10, 0, 0, 0, time.UTC)

const testPeriod = "04/03/2024-08/03/2024"

func fixedClock() time.Time { return testNow }

var (
	adminID    = access.Identity{EmployeeID: "admin-1", Capabilities: []access.Capability{access.CapAdmin}}
	employeeID = access.Identity{EmployeeID: "emp-1"}
	otherID    = access.Identity{EmployeeID: "emp-2"}
)

// ── 内存存储，各 mock repo 共享 ──

type mockStore struct {
	employees   map[string]*model.Employee
	departments map[string]*model.Department
	roles       map[string]*model.Role
	weekSheets  map[string]*model.WeekSheet
	seq         int

	// 注入错误
	createWeekSheetErr error
	// beforeCreateEmployee 在写入员工前执行，用于模拟并发登记
	beforeCreateEmployee func()
}

func newMockStore() *mockStore {
	s := &mockStore{
		employees:   make(map[string]*model.Employee),
		departments: make(map[string]*model.Department),
		roles:       make(map[string]*model.Role),
		weekSheets:  make(map[string]*model.WeekSheet),
	}
	s.employees["admin-1"] = &model.Employee{EmployeeID: "admin-1", Email: "admin@admin.com", Username: "admin", FirstName: "Admin", IsAdmin: true}
	s.employees["emp-1"] = &model.Employee{EmployeeID: "emp-1", Email: "ada@example.com", Username: "ada", FirstName: "Ada", LastName: "Lovelace"}
	s.employees["emp-2"] = &model.Employee{EmployeeID: "emp-2", Email: "alan@example.com", Username: "alan", FirstName: "Alan", LastName: "Turing"}
	s.departments["dept-1"] = &model.Department{DepartmentID: "dept-1", Name: "Engineering"}
	s.roles["role-1"] = &model.Role{RoleID: "role-1", Name: "Developer"}
	return s
}

func (s *mockStore) nextID(prefix string) string {
	s.seq++
	return fmt.Sprintf("%s-%d", prefix, s.seq)
}

// tick 单调递增的时间戳，保证按创建时间排序稳定
func (s *mockStore) tick() time.Time {
	s.seq++
	return testNow.Add(time.Duration(s.seq) * time.Second)
}

func (s *mockStore) repository() *repository.Repository {
	return &repository.Repository{
		Employee:   &mockEmployeeRepo{s},
		Department: &mockDeptRepo{s},
		Role:       &mockRoleRepo{s},
		WeekSheet:  &mockWeekSheetRepo{s},
		Sheet:      &mockSheetRepo{s},
	}
}

// seedWeekSheet 直接写入一张五天的工时表
func (s *mockStore) seedWeekSheet(employeeID, period, status string) *model.WeekSheet {
	ws := &model.WeekSheet{
		WeekSheetID: s.nextID("ws"),
		EmployeeID:  employeeID,
		Period:      period,
		Status:      status,
	}
	ws.CreatedAt = s.tick()
	monday := week.Of(testNow).Monday
	for i := 0; i < week.Days; i++ {
		ws.Sheets = append(ws.Sheets, model.Sheet{
			SheetID:     s.nextID("sh"),
			WeekSheetID: ws.WeekSheetID,
			Position:    i,
			Date:        monday.AddDate(0, 0, i),
			Hours:       8,
			Description: fmt.Sprintf("day %d", i),
			Status:      status,
		})
	}
	s.weekSheets[ws.WeekSheetID] = ws
	return ws
}

func cloneWeekSheet(ws *model.WeekSheet) *model.WeekSheet {
	c := *ws
	c.Sheets = append([]model.Sheet(nil), ws.Sheets...)
	return &c
}

// ── Mock EmployeeRepository ──

type mockEmployeeRepo struct{ s *mockStore }

func (m *mockEmployeeRepo) Create(_ context.Context, emp *model.Employee) error {
	if m.s.beforeCreateEmployee != nil {
		m.s.beforeCreateEmployee()
	}
	for _, e := range m.s.employees {
		if e.Email == emp.Email || e.Username == emp.Username {
			return errMockDuplicate
		}
	}
	if emp.EmployeeID == "" {
		emp.EmployeeID = m.s.nextID("emp")
	}
	emp.CreatedAt = m.s.tick()
	c := *emp
	m.s.employees[emp.EmployeeID] = &c
	return nil
}

func (m *mockEmployeeRepo) withRefs(e *model.Employee) *model.Employee {
	c := *e
	c.Department, c.Role = nil, nil
	if e.DepartmentID != nil {
		c.Department = m.s.departments[*e.DepartmentID]
	}
	if e.RoleID != nil {
		c.Role = m.s.roles[*e.RoleID]
	}
	return &c
}

func (m *mockEmployeeRepo) GetByID(_ context.Context, id string) (*model.Employee, error) {
	if e, ok := m.s.employees[id]; ok {
		return m.withRefs(e), nil
	}
	return nil, errMockNotFound
}

func (m *mockEmployeeRepo) GetByLogin(_ context.Context, login string) (*model.Employee, error) {
	for _, e := range m.s.employees {
		if e.Username == login || e.Email == login {
			return m.withRefs(e), nil
		}
	}
	return nil, errMockNotFound
}

func (m *mockEmployeeRepo) List(_ context.Context, offset, limit int) ([]model.Employee, int64, error) {
	var all []model.Employee
	for _, e := range m.s.employees {
		all = append(all, *m.withRefs(e))
	}
	sort.Slice(all, func(i, j int) bool { return all[i].EmployeeID < all[j].EmployeeID })
	total := int64(len(all))
	if offset >= len(all) {
		return nil, total, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], total, nil
}

func (m *mockEmployeeRepo) UpdateAssignment(_ context.Context, id string, departmentID, roleID *string, _ string) error {
	e, ok := m.s.employees[id]
	if !ok {
		return errMockNotFound
	}
	e.DepartmentID, e.RoleID = departmentID, roleID
	return nil
}

func (m *mockEmployeeRepo) UpdatePassword(_ context.Context, id, hash string) error {
	e, ok := m.s.employees[id]
	if !ok {
		return errMockNotFound
	}
	e.PasswordHash = hash
	return nil
}

// ── Mock DepartmentRepository ──

type mockDeptRepo struct{ s *mockStore }

func (m *mockDeptRepo) Create(_ context.Context, d *model.Department) error {
	for _, x := range m.s.departments {
		if x.Name == d.Name {
			return errMockDuplicate
		}
	}
	if d.DepartmentID == "" {
		d.DepartmentID = m.s.nextID("dept")
	}
	c := *d
	m.s.departments[d.DepartmentID] = &c
	return nil
}

func (m *mockDeptRepo) GetByID(_ context.Context, id string) (*model.Department, error) {
	if d, ok := m.s.departments[id]; ok {
		c := *d
		return &c, nil
	}
	return nil, errMockNotFound
}

func (m *mockDeptRepo) GetByName(_ context.Context, name string) (*model.Department, error) {
	for _, d := range m.s.departments {
		if d.Name == name {
			c := *d
			return &c, nil
		}
	}
	return nil, errMockNotFound
}

func (m *mockDeptRepo) List(_ context.Context) ([]model.Department, error) {
	var out []model.Department
	for _, d := range m.s.departments {
		out = append(out, *d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *mockDeptRepo) Update(_ context.Context, d *model.Department) error {
	c := *d
	m.s.departments[d.DepartmentID] = &c
	return nil
}

func (m *mockDeptRepo) Delete(_ context.Context, id string) error {
	if _, ok := m.s.departments[id]; !ok {
		return errMockNotFound
	}
	for _, e := range m.s.employees {
		if e.DepartmentID != nil && *e.DepartmentID == id {
			e.DepartmentID = nil
		}
	}
	delete(m.s.departments, id)
	return nil
}

func (m *mockDeptRepo) CountMembers(_ context.Context, id string) (int64, error) {
	var n int64
	for _, e := range m.s.employees {
		if e.DepartmentID != nil && *e.DepartmentID == id {
			n++
		}
	}
	return n, nil
}

// ── Mock RoleRepository ──

type mockRoleRepo struct{ s *mockStore }

func (m *mockRoleRepo) Create(_ context.Context, r *model.Role) error {
	for _, x := range m.s.roles {
		if x.Name == r.Name {
			return errMockDuplicate
		}
	}
	if r.RoleID == "" {
		r.RoleID = m.s.nextID("role")
	}
	c := *r
	m.s.roles[r.RoleID] = &c
	return nil
}

func (m *mockRoleRepo) GetByID(_ context.Context, id string) (*model.Role, error) {
	if r, ok := m.s.roles[id]; ok {
		c := *r
		return &c, nil
	}
	return nil, errMockNotFound
}

func (m *mockRoleRepo) GetByName(_ context.Context, name string) (*model.Role, error) {
	for _, r := range m.s.roles {
		if r.Name == name {
			c := *r
			return &c, nil
		}
	}
	return nil, errMockNotFound
}

func (m *mockRoleRepo) List(_ context.Context) ([]model.Role, error) {
	var out []model.Role
	for _, r := range m.s.roles {
		out = append(out, *r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *mockRoleRepo) Update(_ context.Context, r *model.Role) error {
	c := *r
	m.s.roles[r.RoleID] = &c
	return nil
}

func (m *mockRoleRepo) Delete(_ context.Context, id string) error {
	if _, ok := m.s.roles[id]; !ok {
		return errMockNotFound
	}
	for _, e := range m.s.employees {
		if e.RoleID != nil && *e.RoleID == id {
			e.RoleID = nil
		}
	}
	delete(m.s.roles, id)
	return nil
}

func (m *mockRoleRepo) CountMembers(_ context.Context, id string) (int64, error) {
	var n int64
	for _, e := range m.s.employees {
		if e.RoleID != nil && *e.RoleID == id {
			n++
		}
	}
	return n, nil
}

// ── Mock WeekSheetRepository ──

type mockWeekSheetRepo struct{ s *mockStore }

func (m *mockWeekSheetRepo) Create(_ context.Context, ws *model.WeekSheet) error {
	if m.s.createWeekSheetErr != nil {
		return m.s.createWeekSheetErr
	}
	for _, x := range m.s.weekSheets {
		if x.EmployeeID == ws.EmployeeID && x.Period == ws.Period {
			return errMockDuplicate
		}
	}
	ws.WeekSheetID = m.s.nextID("ws")
	ws.CreatedAt = m.s.tick()
	for i := range ws.Sheets {
		ws.Sheets[i].SheetID = m.s.nextID("sh")
		ws.Sheets[i].WeekSheetID = ws.WeekSheetID
	}
	m.s.weekSheets[ws.WeekSheetID] = cloneWeekSheet(ws)
	return nil
}

func (m *mockWeekSheetRepo) load(ws *model.WeekSheet) *model.WeekSheet {
	c := cloneWeekSheet(ws)
	c.Employee = m.s.employees[ws.EmployeeID]
	return c
}

func (m *mockWeekSheetRepo) GetByID(_ context.Context, id string) (*model.WeekSheet, error) {
	if ws, ok := m.s.weekSheets[id]; ok {
		return m.load(ws), nil
	}
	return nil, errMockNotFound
}

func (m *mockWeekSheetRepo) GetByEmployeeAndPeriod(_ context.Context, employeeID, period string) (*model.WeekSheet, error) {
	for _, ws := range m.s.weekSheets {
		if ws.EmployeeID == employeeID && ws.Period == period {
			return m.load(ws), nil
		}
	}
	return nil, errMockNotFound
}

func (m *mockWeekSheetRepo) sorted(keep func(*model.WeekSheet) bool) []model.WeekSheet {
	var out []model.WeekSheet
	for _, ws := range m.s.weekSheets {
		if keep(ws) {
			out = append(out, *m.load(ws))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (m *mockWeekSheetRepo) ListByEmployee(_ context.Context, employeeID string, limit int) ([]model.WeekSheet, error) {
	out := m.sorted(func(ws *model.WeekSheet) bool { return ws.EmployeeID == employeeID })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *mockWeekSheetRepo) ListForReview(_ context.Context, f repository.ReviewFilter, offset, limit int) ([]model.WeekSheet, int64, error) {
	out := m.sorted(func(ws *model.WeekSheet) bool {
		if ws.Status == model.StatusNotSubmitted {
			return false
		}
		if f.Status != "" && ws.Status != f.Status {
			return false
		}
		if f.Period != "" && ws.Period != f.Period {
			return false
		}
		if f.EmployeeID != "" && ws.EmployeeID != f.EmployeeID {
			return false
		}
		if f.DepartmentID != "" {
			e := m.s.employees[ws.EmployeeID]
			if e == nil || e.DepartmentID == nil || *e.DepartmentID != f.DepartmentID {
				return false
			}
		}
		return true
	})
	total := int64(len(out))
	if limit > 0 {
		if offset >= len(out) {
			return nil, total, nil
		}
		end := offset + limit
		if end > len(out) {
			end = len(out)
		}
		out = out[offset:end]
	}
	return out, total, nil
}

func (m *mockWeekSheetRepo) UpdateStatus(_ context.Context, id, status, _ string) error {
	ws, ok := m.s.weekSheets[id]
	if !ok {
		return errMockNotFound
	}
	ws.Status = status
	return nil
}

func (m *mockWeekSheetRepo) Delete(_ context.Context, id string) error {
	if _, ok := m.s.weekSheets[id]; !ok {
		return errMockNotFound
	}
	delete(m.s.weekSheets, id)
	return nil
}

// ── Mock SheetRepository ──

type mockSheetRepo struct{ s *mockStore }

func (m *mockSheetRepo) find(id string) *model.Sheet {
	for _, ws := range m.s.weekSheets {
		for i := range ws.Sheets {
			if ws.Sheets[i].SheetID == id {
				return &ws.Sheets[i]
			}
		}
	}
	return nil
}

func (m *mockSheetRepo) GetByID(_ context.Context, id string) (*model.Sheet, error) {
	if sh := m.find(id); sh != nil {
		c := *sh
		return &c, nil
	}
	return nil, errMockNotFound
}

func (m *mockSheetRepo) ListByWeekSheet(_ context.Context, weekSheetID string) ([]model.Sheet, error) {
	ws, ok := m.s.weekSheets[weekSheetID]
	if !ok {
		return nil, nil
	}
	return append([]model.Sheet(nil), ws.Sheets...), nil
}

func (m *mockSheetRepo) UpdateEntry(_ context.Context, id string, hours int, description, _ string) error {
	sh := m.find(id)
	if sh == nil {
		return errMockNotFound
	}
	sh.Hours, sh.Description = hours, description
	return nil
}

func (m *mockSheetRepo) UpdateStatus(_ context.Context, id, status, _ string) error {
	sh := m.find(id)
	if sh == nil {
		return errMockNotFound
	}
	sh.Status = status
	return nil
}

func (m *mockSheetRepo) UpdateStatusByWeekSheet(_ context.Context, weekSheetID, status, _ string) error {
	if ws, ok := m.s.weekSheets[weekSheetID]; ok {
		for i := range ws.Sheets {
			ws.Sheets[i].Status = status
		}
	}
	return nil
}

// ── Mock 邮件与黑名单 ──

type mockMailer struct {
	sent []mail.Message
	err  error
}

func (m *mockMailer) Send(_ context.Context, msg mail.Message) error {
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, msg)
	return nil
}

type mockBlacklist struct {
	revoked map[string]time.Duration
}

func newMockBlacklist() *mockBlacklist {
	return &mockBlacklist{revoked: make(map[string]time.Duration)}
}

func (m *mockBlacklist) BlacklistToken(_ context.Context, jti string, ttl time.Duration) error {
	if ttl > 0 {
		m.revoked[jti] = ttl
	}
	return nil
}

func (m *mockBlacklist) IsBlacklisted(_ context.Context, jti string) (bool, error) {
	_, ok := m.revoked[jti]
	return ok, nil
}

// ── 构造辅助 ──

func testTimesheetConfig() *config.TimesheetConfig {
	return &config.TimesheetConfig{Timezone: "UTC", HistoryLimit: 52, MaxDayHours: 24}
}

func setupTestTimesheetService() (TimesheetService, *mockStore) {
	store := newMockStore()
	svc := NewTimesheetService(store.repository(), testTimesheetConfig(), fixedClock, zap.NewNop())
	return svc, store
}

func setupTestReviewService() (ReviewService, *mockStore, *mockMailer) {
	store := newMockStore()
	mailer := &mockMailer{}
	svc := NewReviewService(store.repository(), mailer, time.UTC, zap.NewNop())
	return svc, store, mailer
}

var errBoom = errors.New("boom")
