package router

import (
	"fmt"
	"net/http"
	"strings"
)

func ExampleRouter_GetPing() {
	env, err := newTestEnv()
	if err != nil {
		panic(err)
	}
	defer env.server.Close()

	resp, err := http.Get(env.server.URL + "/ping")
	if err != nil {
		panic(err)
	}
	defer resp.Body.Close()

	fmt.Println("Status Code:", resp.StatusCode)

	// Output:
	// Status Code: 200
}

func ExampleRouter_PostAuthRegister() {
	env, err := newTestEnv()
	if err != nil {
		panic(err)
	}
	defer env.server.Close()

	resp, err := http.Post(
		env.server.URL+"/auth/register",
		"application/json",
		strings.NewReader(`{"username":"u1","password":"password1","email":"u1@email.com"}`),
	)
	if err != nil {
		panic(err)
	}
	defer resp.Body.Close()

	fmt.Println("Status Code:", resp.StatusCode)

	// Output:
	// Status Code: 201
}

func ExampleRouter_GetBooksSaved() {
	env, err := newTestEnv()
	if err != nil {
		panic(err)
	}
	defer env.server.Close()

	resp, err := http.Get(env.server.URL + "/books/saved")
	if err != nil {
		panic(err)
	}
	defer resp.Body.Close()

	fmt.Println("Status Code:", resp.StatusCode)

	// Output:
	// Status Code: 401
}
