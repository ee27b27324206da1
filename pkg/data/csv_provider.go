package data

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/ducminhle1904/dema-futures-bot/pkg/types"
)

// CSVProvider reads OHLCV files and single-column close files
type CSVProvider struct {
	format CSVColumnMapping
}

func NewCSVProvider() *CSVProvider {
	return &CSVProvider{
		format: DefaultCSVFormat,
	}
}

func NewCSVProviderWithFormat(format CSVColumnMapping) *CSVProvider {
	return &CSVProvider{
		format: format,
	}
}

func (p *CSVProvider) GetName() string {
	return "CSV Provider"
}

// LoadData loads OHLCV candles. Malformed rows are skipped.
func (p *CSVProvider) LoadData(source string) ([]types.OHLCV, error) {
	file, err := os.Open(source)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	reader := csv.NewReader(file)
	if _, err := reader.Read(); err != nil {
		return nil, fmt.Errorf("read header of %s: %w", source, err)
	}
	return p.readCandles(reader)
}

// LoadCloses returns the closing prices of source. A file whose header has a
// single column holds one close per row; anything else is read as OHLCV.
func (p *CSVProvider) LoadCloses(source string) ([]float64, error) {
	file, err := os.Open(source)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read header of %s: %w", source, err)
	}

	if len(header) == 1 {
		return readCloseColumn(reader)
	}

	candles, err := p.readCandles(reader)
	if err != nil {
		return nil, err
	}
	return types.Closes(candles), nil
}

func readCloseColumn(reader *csv.Reader) ([]float64, error) {
	var closes []float64
	line := 1
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("error reading CSV at line %d: %w", line+1, err)
		}
		line++

		value := strings.TrimSpace(record[0])
		if value == "" {
			continue
		}
		price, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid close %q at line %d: %w", value, line, err)
		}
		closes = append(closes, price)
	}
	return closes, nil
}

func (p *CSVProvider) readCandles(reader *csv.Reader) ([]types.OHLCV, error) {
	format := p.format
	var data []types.OHLCV

	lineNum := 1
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("error reading CSV at line %d: %w", lineNum+1, err)
		}
		lineNum++

		if len(record) < format.MinColumns {
			log.Printf("Insufficient columns at line %d (expected %d, got %d), skipping", lineNum, format.MinColumns, len(record))
			continue
		}

		timestamp, err := time.Parse(format.DateFormat, record[format.TimestampCol])
		if err != nil {
			log.Printf("Invalid timestamp '%s' at line %d, skipping: %v", record[format.TimestampCol], lineNum, err)
			continue
		}

		var prices [5]float64
		cols := [5]int{format.OpenCol, format.HighCol, format.LowCol, format.CloseCol, format.VolumeCol}
		valid := true
		for i, col := range cols {
			prices[i], err = strconv.ParseFloat(record[col], 64)
			if err != nil {
				log.Printf("Invalid value '%s' at line %d column %d, skipping: %v", record[col], lineNum, col, err)
				valid = false
				break
			}
		}
		if !valid {
			continue
		}

		candle := types.OHLCV{
			Timestamp: timestamp,
			Open:      prices[0],
			High:      prices[1],
			Low:       prices[2],
			Close:     prices[3],
			Volume:    prices[4],
		}
		if err := validateCandle(candle); err != nil {
			log.Printf("Invalid candle at line %d, skipping: %v", lineNum, err)
			continue
		}

		data = append(data, candle)
	}

	return data, nil
}

// ValidateData validates the integrity of loaded data
func (p *CSVProvider) ValidateData(data []types.OHLCV) error {
	if len(data) == 0 {
		return fmt.Errorf("no data provided")
	}

	for i, candle := range data {
		if err := validateCandle(candle); err != nil {
			return fmt.Errorf("invalid price data at index %d: %w", i, err)
		}
		if i > 0 && candle.Timestamp.Before(data[i-1].Timestamp) {
			return fmt.Errorf("invalid timestamp sequence at index %d: timestamps must be in chronological order", i)
		}
	}

	return nil
}

func validateCandle(c types.OHLCV) error {
	if c.Open <= 0 || c.High <= 0 || c.Low <= 0 || c.Close <= 0 {
		return fmt.Errorf("prices must be positive")
	}
	if c.High < c.Low {
		return fmt.Errorf("high (%.4f) cannot be less than low (%.4f)", c.High, c.Low)
	}
	if c.High < c.Open || c.High < c.Close {
		return fmt.Errorf("high (%.4f) must be >= open (%.4f) and close (%.4f)", c.High, c.Open, c.Close)
	}
	if c.Low > c.Open || c.Low > c.Close {
		return fmt.Errorf("low (%.4f) must be <= open (%.4f) and close (%.4f)", c.Low, c.Open, c.Close)
	}
	return nil
}

// WriteCloses writes closes as a single-column CSV readable by LoadCloses
func WriteCloses(w io.Writer, closes []float64) error {
	writer := csv.NewWriter(w)
	if err := writer.Write([]string{"close"}); err != nil {
		return err
	}
	for _, c := range closes {
		if err := writer.Write([]string{strconv.FormatFloat(c, 'f', -1, 64)}); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

// SaveCloses writes closes to path, creating or truncating it
func SaveCloses(path string, closes []float64) error {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := WriteCloses(file, closes); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}
