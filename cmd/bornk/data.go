package main

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"math/rand/v2"
	"os"
	"strconv"
	"strings"

	"github.com/born-ml/kernels/tensor"
)

// dataset holds labelled feature rows.
type dataset struct {
	features   [][]float32 // [num_samples, num_features]
	labels     []int       // [num_samples], indices into classNames
	classNames []string
}

func (d *dataset) numSamples() int { return len(d.features) }

func (d *dataset) numFeatures() int {
	if len(d.features) == 0 {
		return 0
	}
	return len(d.features[0])
}

func (d *dataset) numClasses() int { return len(d.classNames) }

// matrix copies every feature row into one [num_samples, num_features] buffer.
func (d *dataset) matrix() (*tensor.Buffer, error) {
	return tensor.FromRows(d.features)
}

// loadCSVFile loads a dataset from a CSV file (see loadCSV).
func loadCSVFile(path string) (*dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open dataset: %w", err)
	}
	defer f.Close()

	ds, err := loadCSV(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return ds, nil
}

// loadCSV parses numeric feature columns followed by a class-name column.
//
// CSV Format (Iris-style):
//
//	Id,SepalLengthCm,SepalWidthCm,PetalLengthCm,PetalWidthCm,Species
//	1,5.1,3.5,1.4,0.2,Iris-setosa
//
// The header row is optional. When present, a leading "Id" column is dropped.
// Class indices are assigned in order of first appearance.
func loadCSV(r io.Reader) (*dataset, error) {
	records, err := csv.NewReader(r).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV: %w", err)
	}
	if len(records) == 0 {
		return nil, errors.New("CSV file is empty")
	}

	first := 0
	skip := 0
	if isHeader(records[0]) {
		if strings.EqualFold(strings.TrimSpace(records[0][0]), "id") {
			skip = 1
		}
		first = 1
	}
	records = records[first:]
	if len(records) == 0 {
		return nil, errors.New("CSV file has no data rows")
	}
	if len(records[0])-skip < 2 {
		return nil, fmt.Errorf("need at least one feature column and a label column, got %d columns", len(records[0]))
	}

	ds := &dataset{
		features: make([][]float32, len(records)),
		labels:   make([]int, len(records)),
	}
	classIndex := make(map[string]int)

	for i, rec := range records {
		row := make([]float32, len(rec)-skip-1)
		for j := range row {
			v, err := strconv.ParseFloat(strings.TrimSpace(rec[skip+j]), 32)
			if err != nil {
				return nil, fmt.Errorf("row %d, column %d: %w", i+first+1, skip+j+1, err)
			}
			row[j] = float32(v)
		}

		name := strings.TrimSpace(rec[len(rec)-1])
		idx, ok := classIndex[name]
		if !ok {
			idx = len(ds.classNames)
			classIndex[name] = idx
			ds.classNames = append(ds.classNames, name)
		}

		ds.features[i] = row
		ds.labels[i] = idx
	}
	return ds, nil
}

// isHeader reports whether the first feature cell is not a number.
func isHeader(rec []string) bool {
	if len(rec) < 2 {
		return false
	}
	cell := strings.TrimSpace(rec[0])
	if strings.EqualFold(cell, "id") {
		return true
	}
	_, err := strconv.ParseFloat(cell, 64)
	return err != nil
}

// standardize rescales every feature column to zero mean and unit variance.
// Constant columns are only centered.
func (d *dataset) standardize() {
	n := d.numSamples()
	if n == 0 {
		return
	}
	for j := 0; j < d.numFeatures(); j++ {
		var mean float64
		for _, row := range d.features {
			mean += float64(row[j])
		}
		mean /= float64(n)

		var variance float64
		for _, row := range d.features {
			diff := float64(row[j]) - mean
			variance += diff * diff
		}
		std := math.Sqrt(variance / float64(n))
		if std == 0 {
			std = 1
		}

		for _, row := range d.features {
			row[j] = float32((float64(row[j]) - mean) / std)
		}
	}
}

// syntheticBlobs draws perClass Gaussian samples around one center per class.
//
// Class k is centered at 3 along feature k mod numFeatures, with a standard
// deviation of 0.5 in every direction. Samples are interleaved by class.
func syntheticBlobs(perClass, numFeatures, numClasses int, rng *rand.Rand) (*dataset, error) {
	if perClass <= 0 || numFeatures <= 0 || numClasses < 2 {
		return nil, fmt.Errorf("invalid synthetic dataset: %d samples per class, %d features, %d classes",
			perClass, numFeatures, numClasses)
	}

	ds := &dataset{
		features:   make([][]float32, 0, perClass*numClasses),
		labels:     make([]int, 0, perClass*numClasses),
		classNames: make([]string, numClasses),
	}
	for k := range ds.classNames {
		ds.classNames[k] = fmt.Sprintf("blob-%d", k)
	}

	for i := 0; i < perClass; i++ {
		for k := 0; k < numClasses; k++ {
			row := make([]float32, numFeatures)
			for j := range row {
				row[j] = float32(rng.NormFloat64() * 0.5)
			}
			row[k%numFeatures] += 3
			ds.features = append(ds.features, row)
			ds.labels = append(ds.labels, k)
		}
	}
	return ds, nil
}

// batchSource yields fixed-size batches from a dataset.
//
// Samples that do not fill a whole batch at the end of an epoch are skipped.
// With a random source the sample order is reshuffled every epoch.
type batchSource struct {
	data   *dataset
	size   int
	order  []int
	cursor int
	rng    *rand.Rand // nil keeps the dataset order
}

func newBatchSource(data *dataset, size int, rng *rand.Rand) (*batchSource, error) {
	if size <= 0 || size > data.numSamples() {
		return nil, fmt.Errorf("batch size %d must be in [1, %d]: %w", size, data.numSamples(), tensor.ErrInvalidDimension)
	}
	s := &batchSource{
		data:  data,
		size:  size,
		order: make([]int, data.numSamples()),
		rng:   rng,
	}
	for i := range s.order {
		s.order[i] = i
	}
	s.shuffle()
	return s, nil
}

func (s *batchSource) shuffle() {
	if s.rng == nil {
		return
	}
	s.rng.Shuffle(len(s.order), func(i, j int) {
		s.order[i], s.order[j] = s.order[j], s.order[i]
	})
}

// batchesPerEpoch returns the number of batches Next yields before reporting the end of an epoch.
func (s *batchSource) batchesPerEpoch() int {
	return len(s.order) / s.size
}

// Next fills x ([size, num_features]) and classes (len size) with the next batch.
//
// It returns false once the epoch is exhausted and rewinds for the next one.
func (s *batchSource) Next(x *tensor.Buffer, classes []int) (bool, error) {
	if x.Rank() != 2 || x.Rows() != s.size || x.Cols() != s.data.numFeatures() || len(classes) != s.size {
		return false, fmt.Errorf("batch buffers %v and %d labels, want [%d %d]: %w",
			x.Shape(), len(classes), s.size, s.data.numFeatures(), tensor.ErrShapeMismatch)
	}
	if s.cursor+s.size > len(s.order) {
		s.cursor = 0
		s.shuffle()
		return false, nil
	}

	for i := 0; i < s.size; i++ {
		idx := s.order[s.cursor+i]
		copy(x.Row(i), s.data.features[idx])
		classes[i] = s.data.labels[idx]
	}
	s.cursor += s.size
	return true, nil
}
