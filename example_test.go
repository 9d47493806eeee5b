package flowkit_test

import (
	"context"
	"fmt"
	"log"

	"github.com/aretw0/flowkit"
	"github.com/aretw0/flowkit/pkg/callbacks"
	"github.com/aretw0/flowkit/pkg/dsl"
)

func bookingLoader() *dsl.Builder {
	b := dsl.New("booking")
	b.Add("ask_name").
		Instructions("Ask for the guest's name.").
		Collect("collect_name", "The guest gave their name", map[string]any{
			"type":       "object",
			"properties": map[string]any{"name": map[string]any{"type": "string"}},
			"required":   []any{"name"},
		}).
		To("done").
		Go("skip", "done")
	b.Add("done").Instructions("Thank the guest.")
	return b
}

// ExampleNew_memory demonstrates compiling the tools of a node from an in-memory flow.
func ExampleNew_memory() {
	loader, err := bookingLoader().Build()
	if err != nil {
		log.Fatal(err)
	}

	kit, err := flowkit.New("", flowkit.WithLoader(loader))
	if err != nil {
		log.Fatal(err)
	}

	tools, err := kit.Tools("ask_name")
	if err != nil {
		log.Fatal(err)
	}
	for _, tool := range tools {
		fmt.Printf("%s (%s): %s\n", tool.Name, tool.Kind, tool.Description)
	}

	// Output:
	// collect_name (data_collection): The guest gave their name
	// skip (transition): Transition via skip
}

// ExampleKit_Model demonstrates synthesizing the unified data model of a flow.
func ExampleKit_Model() {
	loader, err := bookingLoader().Build()
	if err != nil {
		log.Fatal(err)
	}
	kit, err := flowkit.New("", flowkit.WithLoader(loader))
	if err != nil {
		log.Fatal(err)
	}

	m, err := kit.Model("Booking")
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(m.Name())
	for _, f := range m.Fields() {
		fmt.Println(f)
	}

	// Output:
	// Booking
	// name string (required)
}

// ExampleWithDataValidation demonstrates rejecting collected data that breaks the edge contract.
func ExampleWithDataValidation() {
	loader, err := bookingLoader().Build()
	if err != nil {
		log.Fatal(err)
	}

	collect := callbacks.CollectFunc(func(ctx context.Context, data map[string]any, target, edgeID string) error {
		fmt.Printf("collected %v via %s\n", data["name"], edgeID)
		return nil
	})
	kit, err := flowkit.New("",
		flowkit.WithLoader(loader),
		flowkit.WithCallbacks(callbacks.Discard, collect),
		flowkit.WithDataValidation(),
	)
	if err != nil {
		log.Fatal(err)
	}

	tools, _ := kit.Tools("ask_name")
	ctx := context.Background()

	fmt.Println(tools[0].Invoke(ctx, map[string]any{}))
	fmt.Println(tools[0].Invoke(ctx, map[string]any{"name": "Ada"}))

	// Output:
	// edge collect_name: Validation error at : property "name" is missing
	// collected Ada via collect_name
	// <nil>
}
