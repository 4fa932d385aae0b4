package convert

import (
	"context"
	"fmt"
	"sync"
)

const defaultConcurrency = 4

type job struct {
	index  int
	input  string
	output string
}

type jobResult struct {
	index int
	res   Result
}

// converts every input into outDir with a bounded worker pool. results come
// back in input order; a failed file does not stop the others
func Batch(ctx context.Context, inputs []string, outDir string, opts Options, concurrency int) []Result {
	results := make([]Result, len(inputs))
	if len(inputs) == 0 {
		return results
	}
	if concurrency <= 0 {
		concurrency = defaultConcurrency
	}
	log := opts.logger()

	// two inputs that map to one output would race on the rename
	claimed := make(map[string]string, len(inputs))
	var jobs []job
	for i, input := range inputs {
		output := OutputPath(input, outDir, opts.To)
		if first, ok := claimed[output]; ok {
			results[i] = Result{
				Input:  input,
				Output: output,
				Err:    fmt.Errorf("output %s already produced from %s", output, first),
			}
			continue
		}
		claimed[output] = input
		jobs = append(jobs, job{index: i, input: input, output: output})
	}

	workChan := make(chan job, len(jobs))
	resultChan := make(chan jobResult, len(jobs))

	var wg sync.WaitGroup
	for i := 0; i < min(concurrency, len(jobs)); i++ {
		wg.Go(func() {
			for j := range workChan {
				res, err := File(ctx, j.input, j.output, opts)
				res.Err = err
				if err != nil {
					log.Warnw("Conversion failed", "input", j.input, "error", err)
				}
				resultChan <- jobResult{index: j.index, res: res}
			}
		})
	}

	for _, j := range jobs {
		workChan <- j
	}
	close(workChan)

	go func() {
		wg.Wait()
		close(resultChan)
	}()

	for r := range resultChan {
		results[r.index] = r.res
	}
	return results
}

// number of results carrying an error
func Failures(results []Result) int {
	n := 0
	for _, r := range results {
		if r.Err != nil {
			n++
		}
	}
	return n
}
