package data

import (
	"github.com/ducminhle1904/dema-futures-bot/pkg/types"
)

// DataProvider loads historical candles from a source
type DataProvider interface {
	// LoadData loads historical data from the specified source
	LoadData(source string) ([]types.OHLCV, error)

	// ValidateData validates the integrity of the loaded data
	ValidateData(data []types.OHLCV) error

	// GetName returns the name of the data provider
	GetName() string
}

// CloseSource loads a closing price series, oldest first
type CloseSource interface {
	LoadCloses(source string) ([]float64, error)
}

// CSVColumnMapping defines the column positions of an OHLCV CSV file
type CSVColumnMapping struct {
	TimestampCol int
	OpenCol      int
	HighCol      int
	LowCol       int
	CloseCol     int
	VolumeCol    int
	MinColumns   int
	DateFormat   string
}

var (
	_ DataProvider = (*CSVProvider)(nil)
	_ CloseSource  = (*CSVProvider)(nil)
)

var DefaultCSVFormat = CSVColumnMapping{
	TimestampCol: 0,
	OpenCol:      1,
	HighCol:      2,
	LowCol:       3,
	CloseCol:     4,
	VolumeCol:    5,
	MinColumns:   6,
	DateFormat:   "2006-01-02 15:04:05",
}
