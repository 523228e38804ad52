package router

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"time"

	"github.com/patric-chuzhbe/todotracker/internal/auth"
	"github.com/patric-chuzhbe/todotracker/internal/db/memorystorage"
	"github.com/patric-chuzhbe/todotracker/internal/ipchecker"
	"github.com/patric-chuzhbe/todotracker/internal/models"
	"github.com/patric-chuzhbe/todotracker/internal/passwordhash"
	"github.com/patric-chuzhbe/todotracker/internal/service"
)

func newExampleServer() (*httptest.Server, *http.Client) {
	db, err := memorystorage.New()
	if err != nil {
		panic(err)
	}

	theService, err := service.New(db, passwordhash.New(passwordhash.WithTime(1), passwordhash.WithMemory(1024)))
	if err != nil {
		panic(err)
	}

	checker, err := ipchecker.New("")
	if err != nil {
		panic(err)
	}

	theAuth := auth.New(auth.NewIssuer(testSigningKey, time.Hour), cookieName, false)
	server := httptest.NewServer(New(theService, theAuth, checker))

	jar, err := cookiejar.New(nil)
	if err != nil {
		panic(err)
	}

	return server, &http.Client{Jar: jar}
}

func send(client *http.Client, method, url string, payload any) (int, []byte) {
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			panic(err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequest(method, url, body)
	if err != nil {
		panic(err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		panic(err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		panic(err)
	}

	return resp.StatusCode, respBody
}

func ExampleRouter_GetHealth() {
	server, client := newExampleServer()
	defer server.Close()

	code, body := send(client, http.MethodGet, server.URL+"/health", nil)

	fmt.Println("Status Code:", code)
	fmt.Print("Body: ", string(body))

	// Output:
	// Status Code: 200
	// Body: {"status":"healthy"}
}

func ExampleRouter_PostSignup() {
	server, client := newExampleServer()
	defer server.Close()

	code, body := send(client, http.MethodPost, server.URL+"/auth/signup", models.SignupRequest{
		Email:    "user@example.com",
		Password: "correct-horse",
	})

	var result models.AuthResponse
	if err := json.Unmarshal(body, &result); err != nil {
		panic(err)
	}

	fmt.Println("Status Code:", code)
	fmt.Println("Message:", result.Message)
	fmt.Println("Email:", result.User.Email)

	code, body = send(client, http.MethodPost, server.URL+"/auth/signup", models.SignupRequest{
		Email:    "not-an-email",
		Password: "short",
	})

	fmt.Println("Status Code:", code)
	fmt.Print("Body: ", string(body))

	// Output:
	// Status Code: 200
	// Message: User registered successfully
	// Email: user@example.com
	// Status Code: 400
	// Body: {"errors":["Invalid email","Password must be at least 10 characters long."]}
}

func ExampleRouter_PatchTodo() {
	server, client := newExampleServer()
	defer server.Close()

	send(client, http.MethodPost, server.URL+"/auth/signup", models.SignupRequest{
		Email:    "user@example.com",
		Password: "correct-horse",
	})

	description := "two liters"
	_, body := send(client, http.MethodPost, server.URL+"/protected/todos", models.CreateTodoRequest{
		Title:       "buy milk",
		Description: &description,
	})

	var created models.Todo
	if err := json.Unmarshal(body, &created); err != nil {
		panic(err)
	}

	code, body := send(client, http.MethodPatch, server.URL+"/protected/todos/"+created.ID, map[string]any{
		"completed": true,
	})

	var patched models.Todo
	if err := json.Unmarshal(body, &patched); err != nil {
		panic(err)
	}

	fmt.Println("Status Code:", code)
	fmt.Println("Title:", patched.Title)
	fmt.Println("Description:", *patched.Description)
	fmt.Println("Completed:", patched.Completed)

	// Output:
	// Status Code: 200
	// Title: buy milk
	// Description: two liters
	// Completed: true
}

func ExampleRouter_GetTodos() {
	server, client := newExampleServer()
	defer server.Close()

	code, body := send(client, http.MethodGet, server.URL+"/protected/todos", nil)
	fmt.Println("Status Code:", code)
	fmt.Print("Body: ", string(body))

	send(client, http.MethodPost, server.URL+"/auth/signup", models.SignupRequest{
		Email:    "user@example.com",
		Password: "correct-horse",
	})
	send(client, http.MethodPost, server.URL+"/protected/todos", models.CreateTodoRequest{Title: "older"})
	send(client, http.MethodPost, server.URL+"/protected/todos", models.CreateTodoRequest{Title: "newer"})

	code, body = send(client, http.MethodGet, server.URL+"/protected/todos", nil)

	var todos models.Todos
	if err := json.Unmarshal(body, &todos); err != nil {
		panic(err)
	}

	fmt.Println("Status Code:", code)
	for _, todo := range todos {
		fmt.Println(todo.Title)
	}

	// Output:
	// Status Code: 401
	// Body: {"errors":["Unauthorized"]}
	// Status Code: 200
	// newer
	// older
}
