package main

import "fmt"
import "flag"
import "time"
import "math/rand"

import "github.com/bnclabs/mempool/pools"
import hm "github.com/dustin/go-humanize"

var options struct {
	n          int
	children   int
	minsize    int
	maxsize    int
	maxfree    int64
	pagesource string
	cycles     int
	log        bool
}

func argParse() {
	flag.IntVar(&options.n, "n", 100000,
		"number of allocations per pool per cycle")
	flag.IntVar(&options.children, "children", 4,
		"number of child pools under the root")
	flag.IntVar(&options.minsize, "minsize", 8,
		"minimum allocation size")
	flag.IntVar(&options.maxsize, "maxsize", 4096,
		"maximum allocation size")
	flag.Int64Var(&options.maxfree, "maxfree", pools.Recommendedmaxfree(),
		"retention cap in bytes for the allocator")
	flag.StringVar(&options.pagesource, "pagesource", "heap",
		"page source, heap or mmap")
	flag.IntVar(&options.cycles, "cycles", 4,
		"number of alloc/clear cycles")
	flag.BoolVar(&options.log, "log", false,
		"enable component logging")
	flag.Parse()
}

func main() {
	argParse()
	if options.log {
		pools.LogComponents("all")
	}

	setts := pools.Defaultsettings()
	setts["pagesource"] = options.pagesource
	setts["maxfree"] = options.maxfree
	setts["threadsafe"] = true
	allocator := pools.NewAllocator(setts)

	root, err := pools.Createunmanaged(allocator)
	if err != nil {
		panic(err)
	}

	start := time.Now()
	for cycle := 0; cycle < options.cycles; cycle++ {
		runcycle(root)
	}
	elapsed := time.Since(start)

	total := int64(options.cycles) * int64(options.children) * int64(options.n)
	fmt.Printf("%v allocations across %v cycles in %v\n",
		hm.Comma(total), options.cycles, elapsed)
	fmt.Printf("allocator: %v\n", allocator.Prettystats())
	fmt.Printf("recommended maxfree: %v\n",
		hm.Ibytes(uint64(pools.Recommendedmaxfree())))

	root.Destroy()
}

// runcycle build a child pool per worker, fill them up and reclaim
// everything through the root.
func runcycle(root *pools.Pool) {
	rnd := rand.New(rand.NewSource(time.Now().UnixNano()))
	for c := 0; c < options.children; c++ {
		child, err := pools.Create(root, nil)
		if err != nil {
			panic(err)
		}
		for i := 0; i < options.n; i++ {
			size := int64(options.minsize)
			if delta := options.maxsize - options.minsize; delta > 0 {
				size += int64(rnd.Intn(delta))
			}
			if _, err := child.Alloc(size); err != nil {
				panic(err)
			}
		}
		nodes, capacity, used := child.Info()
		samples, min, max, mean := child.Allocstats()
		fmt.Printf(
			"child %v: %v nodes, %v used of %v, "+
				"%v samples sized [%v..%v] mean %v\n",
			c, nodes, hm.Ibytes(uint64(used)), hm.Ibytes(uint64(capacity)),
			samples, min, max, mean)
	}
	root.Clear()
}
