// Copyright 2024 The Cockroach Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// vqfstat builds a Filter from a newline-delimited corpus of keys and
// reports occupancy, the advisory element count, and the observed
// false-positive rate against a held-out sample.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"

	"github.com/MarneniManoj/vqf-1"
	"github.com/MarneniManoj/vqf-1/internal/doorkeeper"
)

func main() {
	corpus := flag.String("corpus", "", "path to a newline-delimited file of keys to insert")
	slots := flag.Uint64("slots", 1<<20, "minimum slot capacity to allocate")
	holdout := flag.Float64("holdout", 0.1, "fraction of the corpus to hold out for false-positive measurement")
	useDoorkeeper := flag.Bool("doorkeeper", false, "gate inserts through an admission filter to absorb duplicate keys")
	flag.Parse()

	if *corpus == "" {
		log.Fatal("-corpus is required")
	}

	keys, err := readLines(*corpus)
	if err != nil {
		log.Fatalf("reading corpus: %v", err)
	}

	nHoldout := int(float64(len(keys)) * *holdout)
	inserted, held := keys[nHoldout:], keys[:nHoldout]

	f := vqf.New(*slots)
	defer f.Close()

	hasher := vqf.NewXXHasher()

	var dk *doorkeeper.Doorkeeper
	if *useDoorkeeper {
		dk = doorkeeper.New(uint32(len(inserted)) * 10)
	}

	var skipped int
	for _, k := range inserted {
		h := hasher.Sum64String(k)
		if dk != nil && dk.AdmitOnce(h) {
			skipped++
			continue
		}
		if !f.Insert(h) {
			log.Printf("filter full after inserting %d of %d keys", f.Len(), len(inserted))
			break
		}
	}

	var falsePositives int
	for _, k := range held {
		if f.IsPresentKey([]byte(k)) {
			falsePositives++
		}
	}

	fmt.Printf("inserted: %d\n", f.Len())
	fmt.Printf("advisory element count: %d\n", f.NumElements())
	if dk != nil {
		fmt.Printf("doorkeeper-absorbed duplicates: %d\n", skipped)
	}
	if len(held) > 0 {
		fmt.Printf("false positive rate over %d held-out keys: %.4f%%\n",
			len(held), 100*float64(falsePositives)/float64(len(held)))
	}
}

func readLines(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var lines []string
	sc := bufio.NewScanner(file)
	for sc.Scan() {
		lines = append(lines, sc.Text())
	}
	rand.Shuffle(len(lines), func(i, j int) { lines[i], lines[j] = lines[j], lines[i] })
	return lines, sc.Err()
}
