package snapshot

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"strings"

	"mark-price-dashboard/src/helpers"
	"mark-price-dashboard/src/logger"
	"mark-price-dashboard/src/models"
)

// -----------------------------------------------------------------------------
// Resource names
// -----------------------------------------------------------------------------

const (
	resourceAnalyse   = "analyseData.json"
	resourceErrorLog  = "errorLog.txt"
	resourcePriceLog  = "priceLog.json"
	resourceDateValue = "dateValue.json"

	// Entries inside the archive sit under a fixed directory.
	archivePrefix = "data/"

	errorLogSeparator = "====="
)

// -----------------------------------------------------------------------------
// Loader
// -----------------------------------------------------------------------------

// Loader fetches the bulk analytics payload and assembles an MSnapshot.
// Depending on configuration it reads either one compressed archive or the
// discrete remote resources.
type Loader struct {
	Config  models.MSnapshotConfig
	Fetcher *Fetcher
	Logger  *logger.Logger
}

// -----------------------------------------------------------------------------

func NewLoader(cfg models.MSnapshotConfig, fetcher *Fetcher, log *logger.Logger) *Loader {
	return &Loader{Config: cfg, Fetcher: fetcher, Logger: log}
}

// -----------------------------------------------------------------------------

// rawParts holds the undecoded logical files of one snapshot.
type rawParts struct {
	analyse   []byte
	errorLog  []byte
	priceLog  []byte
	dateValue []byte // optional
}

// -----------------------------------------------------------------------------

// Load fetches, decodes and assembles one snapshot.
func (l *Loader) Load(ctx context.Context) (*models.MSnapshot, error) {
	var parts rawParts
	var err error

	if l.Config.Mode == "files" {
		parts, err = l.loadFiles(ctx)
	} else {
		parts, err = l.loadArchive(ctx)
	}
	if err != nil {
		return nil, err
	}
	return l.assemble(parts)
}

// -----------------------------------------------------------------------------

func (l *Loader) baseURL() string {
	base := l.Config.BaseURL
	if !strings.HasSuffix(base, "/") {
		base += "/"
	}
	return base
}

// -----------------------------------------------------------------------------

func (l *Loader) loadFiles(ctx context.Context) (rawParts, error) {
	base := l.baseURL()
	var parts rawParts
	var err error

	if parts.analyse, err = l.Fetcher.Get(ctx, base+resourceAnalyse); err != nil {
		return parts, err
	}
	if parts.errorLog, err = l.Fetcher.Get(ctx, base+resourceErrorLog); err != nil {
		return parts, err
	}
	if parts.priceLog, err = l.Fetcher.Get(ctx, base+resourcePriceLog); err != nil {
		return parts, err
	}

	// The date-value series is a later addition, older deployments do not
	// publish it.
	if dv, err := l.Fetcher.Get(ctx, base+resourceDateValue); err == nil {
		parts.dateValue = dv
	} else {
		l.Logger.Debug("Optional resource %s unavailable: %v", resourceDateValue, err)
	}
	return parts, nil
}

// -----------------------------------------------------------------------------

func (l *Loader) loadArchive(ctx context.Context) (rawParts, error) {
	var parts rawParts

	blob, err := l.Fetcher.Get(ctx, l.baseURL()+l.Config.ArchiveName)
	if err != nil {
		return parts, err
	}

	reader, err := zip.NewReader(bytes.NewReader(blob), int64(len(blob)))
	if err != nil {
		return parts, helpers.NewFormatError("snapshot archive unreadable", err)
	}

	for _, entry := range reader.File {
		var dst *[]byte
		switch entry.Name {
		case archivePrefix + resourceAnalyse:
			dst = &parts.analyse
		case archivePrefix + resourceErrorLog:
			dst = &parts.errorLog
		case archivePrefix + resourcePriceLog:
			dst = &parts.priceLog
		case archivePrefix + resourceDateValue:
			dst = &parts.dateValue
		default:
			continue
		}

		rc, err := entry.Open()
		if err != nil {
			return parts, helpers.NewFormatError("snapshot archive entry "+entry.Name, err)
		}
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return parts, helpers.NewFormatError("snapshot archive entry "+entry.Name, err)
		}
		*dst = data
	}

	if parts.analyse == nil || parts.errorLog == nil || parts.priceLog == nil {
		return parts, helpers.NewFormatError("snapshot archive missing expected entries", nil)
	}
	return parts, nil
}

// -----------------------------------------------------------------------------

func (l *Loader) assemble(parts rawParts) (*models.MSnapshot, error) {
	var analyse models.MAnalyseData
	if err := json.Unmarshal(parts.analyse, &analyse); err != nil {
		return nil, helpers.NewFormatError("decode "+resourceAnalyse, err)
	}

	var priceLog models.MPriceLog
	if err := json.Unmarshal(parts.priceLog, &priceLog); err != nil {
		return nil, helpers.NewFormatError("decode "+resourcePriceLog, err)
	}

	var dateValue []models.MDatePoint
	if parts.dateValue != nil {
		if err := json.Unmarshal(parts.dateValue, &dateValue); err != nil {
			return nil, helpers.NewFormatError("decode "+resourceDateValue, err)
		}
	}

	return &models.MSnapshot{
		AnalyseTime:    analyse.AnalyseTime,
		StartTime:      analyse.StartTime,
		NowTime:        priceLog.NowTime,
		NowPrice:       priceLog.NowPrice,
		ShortPrice:     priceLog.ShortPrice,
		LongPrice:      priceLog.LongPrice,
		Lever:          analyse.Lever,
		OrderFormMonth: analyse.OrderFormMonth,
		OrderFormYear:  analyse.OrderFormYear,
		LastNMonth:     analyse.LastNMonth,
		MinNMonth:      analyse.MinNMonth,
		DateValue:      dateValue,
		ErrorLog:       SplitErrorLog(string(parts.errorLog)),
	}, nil
}

// -----------------------------------------------------------------------------

// SplitErrorLog splits the plain-text log on its literal separator token,
// trims each segment and drops empties, preserving order.
func SplitErrorLog(text string) []string {
	var entries []string
	for _, segment := range strings.Split(strings.TrimSpace(text), errorLogSeparator) {
		if trimmed := strings.TrimSpace(segment); trimmed != "" {
			entries = append(entries, trimmed)
		}
	}
	return entries
}
