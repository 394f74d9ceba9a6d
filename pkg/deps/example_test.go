package deps_test

import (
	"fmt"

	"github.com/matzehuels/bonnie/pkg/deps"
)

func ExampleNormalize() {
	fmt.Println(deps.Normalize("^1.2.3"))
	fmt.Println(deps.Normalize("~2.0.0"))
	fmt.Println(deps.Normalize("1.0.0"))
	// Output:
	// 1.2.3
	// 2.0.0
	// 1.0.0
}

func ExampleDependencyMap_Merge() {
	m := deps.NewDependencyMap()
	m.Merge(map[string]string{"a": "1.0.0"})
	m.Merge(map[string]string{"a": "2.0.0", "b": "^0.1.0"})

	for _, s := range m.Specs() {
		fmt.Println(s)
	}
	// Output:
	// a@2.0.0
	// b@0.1.0
}
