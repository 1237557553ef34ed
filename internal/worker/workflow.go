package worker

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"pacsbot/internal/models"
	"pacsbot/internal/portal"
	"pacsbot/internal/repository"
)

const (
	listPath   = "/?mode=on_list&exec=liste&qry="
	selectPath = "/?exec=update_patient&mode=view"

	// Fixed portal query contract.
	queryOperator = "dr.lacin"
	institution   = "ABS_KTMBAKU"
)

var modalities = []string{"MR", "CT", "SR", "PR", "CR", "DR", "DR", "NM", "XA", "US", "SC", "MG", "OT", "RF"}

// listQuery is the JSON query the portal parses out of the list URL.
// Field order matters to keep the encoded query byte-identical to what
// the portal's own frontend sends.
type listQuery struct {
	Level       int      `json:"level"`
	Username    string   `json:"username"`
	IsDr        string   `json:"isdr"`
	IsRp        string   `json:"isrp"`
	Time        string   `json:"time"`
	Kurum       []string `json:"kurum"`
	MyReports   bool     `json:"myreports"`
	ShowDr      bool     `json:"showdr"`
	ShowRp      bool     `json:"showrp"`
	ShowAcc     bool     `json:"showacc"`
	TimeRange   string   `json:"timerange"`
	TimeStart   string   `json:"timestart"`
	TimeEnd     string   `json:"timeend"`
	PatientID   string   `json:"patientid"`
	Accession   string   `json:"accession"`
	PatientName string   `json:"patientname"`
	Modality    []string `json:"modality"`
	Status      []string `json:"status"`
	SelectDr    []string `json:"selectdr"`
	SelectRp    []string `json:"selectrp"`
	DayStart    string   `json:"daystart"`
	DayEnd      string   `json:"dayend"`
}

// Workflow runs one full "find today's pending patients, select them"
// cycle against the portal.
type Workflow struct {
	portal   *portal.Client
	statuses *repository.StatusRepository
	toggles  *repository.ToggleRepository
	baseURL  string
	location *time.Location
	logger   *zap.Logger
}

func NewWorkflow(portalClient *portal.Client, statuses *repository.StatusRepository, toggles *repository.ToggleRepository, baseURL, timezone string, logger *zap.Logger) (*Workflow, error) {
	location, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid portal timezone %q: %w", timezone, err)
	}
	return &Workflow{
		portal:   portalClient,
		statuses: statuses,
		toggles:  toggles,
		baseURL:  baseURL,
		location: location,
		logger:   logger,
	}, nil
}

// dayKey returns today in the portal's timezone as an 8-digit YYYYMMDD
// string; the portal parses it positionally inside the list query.
func (w *Workflow) dayKey() string {
	return time.Now().In(w.location).Format("20060102")
}

// fetchCandidates scrapes today's pending patient list and returns the
// checkbox identifiers in document order. Duplicates are preserved,
// mirroring the portal output.
func (w *Workflow) fetchCandidates(ctx context.Context, day string) ([]string, error) {
	query := listQuery{
		Level:    2,
		Username: queryOperator,
		IsDr:     "1",
		IsRp:     "0",
		Time:     "5",
		Kurum:    []string{institution},
		Modality: modalities,
		Status:   []string{"4"},
		SelectDr: []string{},
		SelectRp: []string{},
		DayStart: day,
		DayEnd:   day,
	}
	raw, err := json.Marshal(query)
	if err != nil {
		return nil, fmt.Errorf("encode list query: %w", err)
	}

	listURL := w.baseURL + listPath + url.QueryEscape(string(raw))
	resp, err := w.portal.Get(ctx, listURL)
	if err != nil {
		return nil, fmt.Errorf("fetch patient list: %w", err)
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(resp.Body()))
	if err != nil {
		return nil, fmt.Errorf("parse patient list: %w", err)
	}

	var names []string
	doc.Find("#st tbody tr input[type=checkbox][name]").Each(func(_ int, sel *goquery.Selection) {
		if name := sel.AttrOr("name", ""); name != "" {
			names = append(names, name)
		}
	})
	return names, nil
}

// selectionForm builds the bulk-selection form: fixed scaffold fields
// plus one "on" field per candidate identifier.
func selectionForm(names []string, day string) map[string]string {
	form := map[string]string{
		"compress":  "0",
		"q":         fmt.Sprintf("kurum=%s&query= and StudyDate between '%s' and '%s'   and  view = 0 ", institution, day, day),
		"adr":       "",
		"arp":       "",
		"st_length": "1000",
	}
	for _, name := range names {
		form[name] = "on"
	}
	return form
}

// Run executes one cycle. Outcomes are recorded in the status store and
// failures never propagate: the cause goes to the log and a generic
// error status to the store.
func (w *Workflow) Run(ctx context.Context) {
	if !w.automationEnabled() {
		w.recordStatus(models.StatusIdle, "Automation is disabled", 0)
		return
	}

	w.recordStatus(models.StatusFetching, "Fetching patients...", 0)

	day := w.dayKey()
	w.logger.Info("Fetching patients", zap.String("day", day))

	names, err := w.fetchCandidates(ctx, day)
	if err != nil {
		w.logger.Error("Fetch run failed", zap.Error(err))
		w.recordStatus(models.StatusError, "Failed to fetch and select patients", 0)
		return
	}
	w.logger.Info("Found patients", zap.Int("count", len(names)))

	if len(names) == 0 {
		w.recordStatus(models.StatusSuccess, "No patients found!", 0)
		return
	}

	w.logger.Info("Selecting all patients")
	_, err = w.portal.PostForm(ctx, w.baseURL+selectPath, selectionForm(names, day), map[string]string{
		"Content-Type": "application/x-www-form-urlencoded; charset=UTF-8",
	})
	if err != nil {
		w.logger.Error("Selection submit failed", zap.Error(err))
		w.recordStatus(models.StatusError, "Failed to fetch and select patients", 0)
		return
	}

	w.recordStatus(models.StatusSuccess, fmt.Sprintf("Successfully processed %d patients", len(names)), len(names))
}

// automationEnabled reads the latest toggle, defaulting to off when the
// store is empty or unreachable.
func (w *Workflow) automationEnabled() bool {
	toggle, err := w.toggles.Latest()
	if err != nil {
		w.logger.Error("Failed to check automation status", zap.Error(err))
		return false
	}
	return toggle != nil && toggle.IsEnabled
}

// recordStatus appends one status row and, on a counted success, one
// audit row. Store failures are logged and swallowed; they must never
// kill the worker.
func (w *Workflow) recordStatus(status, message string, patientCount int) {
	if err := w.statuses.Append(status, message, patientCount); err != nil {
		w.logger.Error("Failed to update status in database", zap.Error(err))
		return
	}
	if patientCount > 0 {
		if err := w.statuses.AppendFetchCount(patientCount); err != nil {
			w.logger.Error("Failed to record patient fetch count", zap.Error(err))
		}
	}
}
