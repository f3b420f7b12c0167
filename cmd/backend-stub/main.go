// Command backend-stub is a local stand-in for the backend function
// host. It logs whatever the relay forwards and answers 200 so the
// callback handshake loop can be exercised end to end on a laptop.
package main

import (
	"io"
	"log"
	"net/http"
)

func callbackHandler(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "Invalid payload", http.StatusBadRequest)
		return
	}
	log.Printf("Callback received: %s %s: %s\n", r.Method, r.URL.String(), string(body))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("success"))
}

func main() {
	http.HandleFunc("/", callbackHandler)
	log.Println("Backend stub listening on :8081")
	log.Fatal(http.ListenAndServe(":8081", nil))
}
