package functions

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/Luismorlan/mediamux/model"
	"github.com/Luismorlan/mediamux/realtime"
	Logger "github.com/Luismorlan/mediamux/utils/log"
	"github.com/pkg/errors"
)

const defaultSheetName = "Sheet1"

type SheetSyncRequest struct {
	ConfigId string `json:"config_id"`
}

type SheetSyncResult struct {
	Rows     int       `json:"rows"`
	SyncedAt time.Time `json:"synced_at"`
}

// sheetColumns returns the headers in column order with the media field of
// each. Without mapping every media field is exported under its own name.
func sheetColumns(mapping map[string]string) ([]string, []string, error) {
	if len(mapping) == 0 {
		return MediaFields, MediaFields, nil
	}
	headers := make([]string, 0, len(mapping))
	for h := range mapping {
		headers = append(headers, h)
	}
	sort.Strings(headers)
	fields := make([]string, 0, len(headers))
	known := map[string]bool{}
	for _, f := range MediaFields {
		known[f] = true
	}
	for _, h := range headers {
		if !known[mapping[h]] {
			return nil, nil, errors.Wrapf(ErrBadRequest, "header %q maps to unknown media field %q", h, mapping[h])
		}
		fields = append(fields, mapping[h])
	}
	return headers, fields, nil
}

func sheetValues(headers, fields []string, records []map[string]interface{}) [][]interface{} {
	values := make([][]interface{}, 0, len(records)+1)
	header := make([]interface{}, len(headers))
	for i, h := range headers {
		header[i] = h
	}
	values = append(values, header)
	for _, r := range records {
		row := make([]interface{}, len(fields))
		for i, field := range fields {
			row[i] = fmt.Sprint(r[field])
		}
		values = append(values, row)
	}
	return values
}

// SyncGoogleSheet overwrites the configured sheet with the whole media table.
func (f *Functions) SyncGoogleSheet(ctx context.Context, configId string) (*SheetSyncResult, error) {
	if f.Sheets == nil {
		return nil, errors.Wrap(ErrNotConfigured, "google sheets")
	}
	var config model.GoogleSheetsConfig
	if err := f.first(ctx, &config, configId); err != nil {
		return nil, err
	}
	headers, fields, err := sheetColumns(config.HeaderMapping.Data())
	if err != nil {
		return nil, err
	}
	records, err := f.loadRecords(ctx, nil)
	if err != nil {
		return nil, err
	}

	sheet := config.SheetName
	if sheet == "" {
		sheet = defaultSheetName
	}
	// Clear first so rows of deleted media don't linger below the new data.
	if err := f.Sheets.ClearValues(ctx, config.SpreadsheetId, sheet); err != nil {
		return nil, errors.Wrap(err, "fail to clear sheet")
	}
	if err := f.Sheets.UpdateValues(ctx, config.SpreadsheetId, sheet+"!A1", sheetValues(headers, fields, records)); err != nil {
		return nil, errors.Wrap(err, "fail to update sheet")
	}

	now := time.Now()
	if err := f.DB.WithContext(ctx).Model(&config).Update("last_synced_at", now).Error; err != nil {
		return nil, errors.Wrap(err, "fail to record sheet sync")
	}
	return &SheetSyncResult{Rows: len(records), SyncedAt: now}, nil
}

// SheetsAutoSync mirrors every auto-sync sheet on each media change. Each
// sheet has its own subscription and goroutine, sheets never coordinate and
// every event triggers a full mirror.
type SheetsAutoSync struct {
	f       *Functions
	bus     realtime.Bus
	mu      sync.Mutex
	parent  context.Context
	running map[string]context.CancelFunc
	// synced is signalled after each mirror attempt, for tests.
	synced func(configId string, err error)
}

func NewSheetsAutoSync(f *Functions, bus realtime.Bus) *SheetsAutoSync {
	return &SheetsAutoSync{f: f, bus: bus, running: map[string]context.CancelFunc{}}
}

// Start launches the mirrors and keeps them until ctx is done.
func (a *SheetsAutoSync) Start(ctx context.Context) error {
	a.mu.Lock()
	a.parent = ctx
	a.mu.Unlock()
	return a.Reload(ctx)
}

// Reload starts mirrors of newly enabled configs and stops the ones of
// removed or disabled configs.
func (a *SheetsAutoSync) Reload(ctx context.Context) error {
	var configs []model.GoogleSheetsConfig
	if err := a.f.DB.WithContext(ctx).Where("auto_sync = ?", true).Find(&configs).Error; err != nil {
		return errors.Wrap(err, "fail to load sheets configs")
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.parent == nil {
		return nil
	}
	wanted := map[string]bool{}
	for _, c := range configs {
		wanted[c.Id] = true
		if _, ok := a.running[c.Id]; ok {
			continue
		}
		subCtx, cancel := context.WithCancel(a.parent)
		events, err := a.bus.Subscribe(subCtx)
		if err != nil {
			cancel()
			return err
		}
		a.running[c.Id] = cancel
		go a.mirror(subCtx, c.Id, events)
	}
	for id, cancel := range a.running {
		if !wanted[id] {
			cancel()
			delete(a.running, id)
		}
	}
	return nil
}

func (a *SheetsAutoSync) mirror(ctx context.Context, configId string, events <-chan realtime.ChangeEvent) {
	Logger.Log.Info("sheets auto sync started for config ", configId)
	for event := range events {
		if event.Table != "media" {
			continue
		}
		_, err := a.f.SyncGoogleSheet(ctx, configId)
		if err != nil {
			Logger.Log.Errorf("sheets auto sync of %s failed: %s", configId, err)
		}
		if a.synced != nil {
			a.synced(configId, err)
		}
	}
	Logger.Log.Info("sheets auto sync stopped for config ", configId)
}

// Running returns the ids of the configs being mirrored.
func (a *SheetsAutoSync) Running() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	ids := make([]string, 0, len(a.running))
	for id := range a.running {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
