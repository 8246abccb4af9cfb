package syncer

import (
	"context"
	"errors"
	"testing"
	"time"

	"zhipin-sync/internal/brandmap"
	"zhipin-sync/internal/mapper"
	"zhipin-sync/internal/model"
	"zhipin-sync/internal/upstream"
)

type stubClient struct {
	validateOK    bool
	validateErr   error
	validateCalls int
	listErr       map[int64]error
	records       map[int64][]model.RawPositionRecord
	block         chan struct{}
}

func (c *stubClient) ValidateToken(ctx context.Context) (bool, error) {
	c.validateCalls++
	return c.validateOK, c.validateErr
}

func (c *stubClient) ListOrganizationPositions(ctx context.Context, orgID int64, pageNum, pageSize int) (model.RawListResponse, error) {
	if c.block != nil {
		<-c.block
	}
	if err, ok := c.listErr[orgID]; ok {
		return model.RawListResponse{}, err
	}
	recs := c.records[orgID]
	return model.RawListResponse{Data: model.RawListData{Result: recs, Total: len(recs)}}, nil
}

func testTable() brandmap.Lookup {
	return brandmap.NewStaticFromTable(map[int64]string{
		1001: "品牌甲",
		1002: "品牌乙",
	})
}

func rawRecord(storeID string, jobID int64) model.RawPositionRecord {
	return model.RawPositionRecord{
		StoreID:      storeID,
		StoreName:    "门店" + storeID,
		StoreAddress: "上海市静安区南京西路88号",
		JobID:        jobID,
		JobName:      "服务员",
		Salary:       5000,
		WorkTimeArrangement: model.RawWorkTimeArrangement{
			WorkTimeList:    []model.RawWorkTime{{StartTime: 32400, EndTime: 61200}},
			WeekDays:        []int{1, 2, 3},
			DailyMinHours:   8,
			PerWeekWorkDays: 5,
		},
	}
}

func newTestOrchestrator(client *stubClient) *Orchestrator {
	table := testTable()
	conv := mapper.New(table, nil)
	return New(func(token string) UpstreamClient { return client }, conv, table, Config{}, nil)
}

func TestSyncMultipleOrganizationsPartialFailure(t *testing.T) {
	t.Parallel()

	client := &stubClient{
		validateOK: true,
		records: map[int64][]model.RawPositionRecord{
			1001: {rawRecord("a1", 1), rawRecord("a1", 2), rawRecord("a2", 3)},
		},
		listErr: map[int64]error{
			1002: &upstream.TransportError{Op: "list positions", Err: errors.New("connection refused")},
		},
	}
	o := newTestOrchestrator(client)

	record, err := o.SyncMultipleOrganizations(context.Background(), "token", []int64{1001, 1002}, 0, nil)
	if err != nil {
		t.Fatalf("SyncMultipleOrganizations error: %v", err)
	}

	if client.validateCalls != 1 {
		t.Fatalf("token validated %d times, want once per batch", client.validateCalls)
	}
	if len(record.Results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(record.Results))
	}
	if record.OverallSuccess {
		t.Fatal("overall success must be false when any organization fails")
	}

	a := record.Results[0]
	if !a.Success || a.StoreCount != 2 || a.ProcessedRecords != 3 {
		t.Fatalf("unexpected result for 1001: %+v", a)
	}
	if a.ConvertedData == nil || len(a.ConvertedData.Stores) != 2 {
		t.Fatal("successful result must carry usable converted data")
	}
	if a.BrandName != "品牌甲" {
		t.Fatalf("brand = %q, want 品牌甲", a.BrandName)
	}

	b := record.Results[1]
	if b.Success || len(b.Errors) != 1 {
		t.Fatalf("unexpected result for 1002: %+v", b)
	}
	if b.ConvertedData != nil {
		t.Fatal("failed result must not carry converted data")
	}
	if b.BrandName != "品牌乙" {
		t.Fatalf("failed result brand = %q, want 品牌乙", b.BrandName)
	}

	var sum int64
	for _, r := range record.Results {
		sum += r.DurationMS
	}
	if record.TotalDurationMS != sum {
		t.Fatalf("total duration %d != sum of results %d", record.TotalDurationMS, sum)
	}
}

func TestSyncMultipleOrganizationsMissingToken(t *testing.T) {
	t.Parallel()

	o := newTestOrchestrator(&stubClient{validateOK: true})
	_, err := o.SyncMultipleOrganizations(context.Background(), "", []int64{1001}, 0, nil)
	if !errors.Is(err, ErrMissingToken) {
		t.Fatalf("expected ErrMissingToken, got %v", err)
	}
}

func TestSyncMultipleOrganizationsInvalidToken(t *testing.T) {
	t.Parallel()

	client := &stubClient{validateOK: false}
	o := newTestOrchestrator(client)
	_, err := o.SyncMultipleOrganizations(context.Background(), "bad", []int64{1001}, 0, nil)
	if !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestSyncMultipleOrganizationsSingleWriterGuard(t *testing.T) {
	t.Parallel()

	client := &stubClient{validateOK: true, block: make(chan struct{})}
	o := newTestOrchestrator(client)

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = o.SyncMultipleOrganizations(context.Background(), "token", []int64{1001}, 0, nil)
	}()

	// 等待首个运行进入拉取阶段。
	deadline := time.Now().Add(2 * time.Second)
	for !o.Running() {
		if time.Now().After(deadline) {
			t.Fatal("first run never started")
		}
		time.Sleep(time.Millisecond)
	}

	_, err := o.SyncMultipleOrganizations(context.Background(), "token", []int64{1002}, 0, nil)
	if !errors.Is(err, ErrSyncInProgress) {
		t.Fatalf("expected ErrSyncInProgress, got %v", err)
	}

	close(client.block)
	<-done
	if o.Running() {
		t.Fatal("orchestrator still marked running after completion")
	}
}

func TestSyncMultipleOrganizationsProgress(t *testing.T) {
	t.Parallel()

	client := &stubClient{
		validateOK: true,
		records: map[int64][]model.RawPositionRecord{
			1001: {rawRecord("a1", 1)},
			1002: {rawRecord("b1", 2)},
		},
	}
	o := newTestOrchestrator(client)

	type event struct {
		percent int
		orgID   int64
	}
	var events []event
	_, err := o.SyncMultipleOrganizations(context.Background(), "token", []int64{1001, 1002}, 0, func(percent int, orgID int64, message string) {
		events = append(events, event{percent, orgID})
	})
	if err != nil {
		t.Fatalf("SyncMultipleOrganizations error: %v", err)
	}

	want := []event{{0, 1001}, {50, 1001}, {50, 1002}, {100, 1002}}
	if len(events) != len(want) {
		t.Fatalf("expected %d progress events, got %d", len(want), len(events))
	}
	for i, e := range want {
		if events[i] != e {
			t.Fatalf("event %d = %+v, want %+v", i, events[i], e)
		}
	}
}

func TestSyncOrganizationBusinessError(t *testing.T) {
	t.Parallel()

	client := &stubClient{
		validateOK: true,
		listErr: map[int64]error{
			1001: &upstream.APIError{Code: 5002, Message: "organization not found"},
		},
	}
	o := newTestOrchestrator(client)

	result := o.SyncOrganization(context.Background(), "token", 1001)
	if result.Success {
		t.Fatal("expected failure result")
	}
	if len(result.Errors) != 1 {
		t.Fatalf("expected 1 error, got %v", result.Errors)
	}
}
