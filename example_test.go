package promisify_test

import (
	"context"
	"fmt"
	"time"

	promisify "github.com/joeycumines/go-promisify"
)

func ExampleFunction() {
	readFile := func(path string, cb func(err error, contents string)) {
		cb(nil, "contents of "+path)
	}

	wrapped, err := promisify.Function(readFile)
	if err != nil {
		panic(err)
	}

	contents, err := promisify.Await[string](context.Background(), wrapped("a.txt"))
	fmt.Println(contents, err)

	//output:
	//contents of a.txt <nil>
}

func ExampleFunction_errFirst() {
	divide := func(a, b int, cb func(err error, quotient int)) {
		if b == 0 {
			cb(fmt.Errorf("division by zero"), 0)
			return
		}
		cb(nil, a/b)
	}

	wrapped, err := promisify.Function(divide)
	if err != nil {
		panic(err)
	}

	q, err := promisify.Await[int](context.Background(), wrapped(10, 2))
	fmt.Println(q, err)

	_, err = promisify.Await[int](context.Background(), wrapped(1, 0))
	fmt.Println(err)

	//output:
	//5 <nil>
	//division by zero
}

func ExampleWithTimeout() {
	hang := func(cb func(err error, s string)) {
		// Never calls back; the configured countdown rejects the promise.
	}

	wrapped, err := promisify.Function(hang, promisify.WithTimeout("20ms"))
	if err != nil {
		panic(err)
	}

	p := wrapped()
	<-p.ToChannel()
	fmt.Println(p.State(), p.Result())

	//output:
	//Rejected promisify: operation timed out after 20ms (configured 20ms)
}

func ExampleConverter_Object() {
	client := map[string]any{
		"endpoint": "https://api.example.com",
		"get": func(path string, cb func(err error, body string)) {
			cb(nil, "GET "+path)
		},
	}

	c, err := promisify.New()
	if err != nil {
		panic(err)
	}
	view, err := c.Object(client)
	if err != nil {
		panic(err)
	}

	endpoint, _ := view.Get("endpoint")
	fmt.Println(endpoint)

	body, err := promisify.Await[string](context.Background(), view.Call("get", "/users"))
	fmt.Println(body, err)

	//output:
	//https://api.example.com
	//GET /users
}

func ExampleWithCallbackStyle() {
	stat := func(path string, cb func(size int64, mode string)) {
		cb(42, "0644")
	}

	wrapped, err := promisify.Function(stat, promisify.WithCallbackStyle(promisify.ResultOnly))
	if err != nil {
		panic(err)
	}

	results, err := promisify.Await[[]promisify.Result](context.Background(), wrapped("a.txt"))
	fmt.Println(results, err)

	//output:
	//[42 0644] <nil>
}

func ExampleAwait() {
	wrapped, err := promisify.Function(func(cb func(err error, n int)) {
		go func() {
			time.Sleep(5 * time.Millisecond)
			cb(nil, 7)
		}()
	})
	if err != nil {
		panic(err)
	}

	n, err := promisify.Await[int](context.Background(), wrapped())
	fmt.Println(n, err)

	//output:
	//7 <nil>
}
