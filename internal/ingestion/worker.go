package ingestion

import (
	"log"
	"sync"

	"github.com/mobiusengine/leads-engine/internal/models"
)

// FileWorkerPool ingests a set of files concurrently. Each file is one
// independent batch; batches may race on the same profile URL and rely on
// the reconciliation engine's conflict retry to stay consistent.
type FileWorkerPool struct {
	processor  *FileProcessor
	numWorkers int
}

func NewFileWorkerPool(processor *FileProcessor, numWorkers int) *FileWorkerPool {
	if numWorkers < 1 {
		numWorkers = 1
	}
	return &FileWorkerPool{
		processor:  processor,
		numWorkers: numWorkers,
	}
}

// ProcessAll dispatches every path to the worker pool and collects the
// resulting upload summaries. Skipped files produce no summary.
func (p *FileWorkerPool) ProcessAll(paths []string) []models.UploadRecord {
	jobs := make(chan string)
	results := make(chan *models.UploadRecord, len(paths))
	var wg sync.WaitGroup

	for w := 1; w <= p.numWorkers; w++ {
		wg.Add(1)
		go p.fileWorker(w, jobs, results, &wg)
	}

	for _, path := range paths {
		jobs <- path
	}
	close(jobs)
	wg.Wait()
	close(results)

	var records []models.UploadRecord
	for record := range results {
		if record != nil {
			records = append(records, *record)
		}
	}
	return records
}

func (p *FileWorkerPool) fileWorker(workerID int, jobs <-chan string, results chan<- *models.UploadRecord, wg *sync.WaitGroup) {
	defer wg.Done()
	for path := range jobs {
		log.Printf("File worker %d: processing %s", workerID, path)
		record, err := p.processor.ProcessFile(path)
		if err != nil {
			log.Printf("File worker %d: failed to process %s: %v", workerID, path, err)
			continue
		}
		results <- record
	}
	log.Printf("File worker %d finished.", workerID)
}
