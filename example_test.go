package slabgo_test

import (
	"fmt"
	"log"

	"github.com/hupe1980/slabgo"
	"github.com/hupe1980/slabgo/mem"
	"github.com/hupe1980/slabgo/resource"
)

func Example() {
	a, err := slabgo.New(64)
	if err != nil {
		log.Fatal(err)
	}
	defer a.Close()

	buf, err := a.Allocate()
	if err != nil {
		log.Fatal(err)
	}

	copy(buf, "hello")
	fmt.Println(string(buf[:5]), len(buf))

	a.Deallocate(buf)
	// Output:
	// hello 64
}

func ExampleNewPool() {
	type vec3 struct{ x, y, z float64 }

	pool, err := slabgo.NewPool[vec3](nil)
	if err != nil {
		log.Fatal(err)
	}
	defer pool.Close()

	v, err := pool.Get(func(v *vec3) { v.x = 1; v.y = 2 })
	if err != nil {
		log.Fatal(err)
	}

	fmt.Println(v.x, v.y, v.z)
	pool.Put(v)
	// Output:
	// 1 2 0
}

func ExampleAllocator_PrepareBulk() {
	a, err := slabgo.New(128)
	if err != nil {
		log.Fatal(err)
	}
	defer a.Close()

	// Guarantee the next 64 allocations run without block growth.
	if err := a.PrepareBulk(64); err != nil {
		log.Fatal(err)
	}

	for i := 0; i < 64; i++ {
		if _, err := a.Allocate(); err != nil {
			log.Fatal(err)
		}
	}

	fmt.Println(a.Total())
	// Output:
	// 1
}

func ExampleWithMemoryAcquirer() {
	// Cap the combined footprint of every allocator sharing the controller.
	ctrl := resource.NewController(resource.Config{MemoryLimitBytes: 64 << 20})

	a, err := slabgo.New(256, slabgo.WithMemoryAcquirer(ctrl))
	if err != nil {
		log.Fatal(err)
	}
	defer a.Close()

	buf, err := a.Allocate()
	if err != nil {
		log.Fatal(err)
	}
	defer a.Deallocate(buf)

	fmt.Println(len(buf))
	// Output:
	// 256
}

func ExampleWithMemorySource() {
	// Keep block payloads in anonymous mappings outside the Go heap.
	source := mem.NewMmapSource()

	a, err := slabgo.New(512, slabgo.WithMemorySource(source))
	if err != nil {
		log.Fatal(err)
	}
	defer a.Close()

	buf, err := a.Allocate()
	if err != nil {
		log.Fatal(err)
	}

	a.Deallocate(buf)
	fmt.Println(source.Active())
	// Output:
	// 1
}
