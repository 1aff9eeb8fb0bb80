// trainctl is a small client for trainerd. It can inspect a composite
// training id locally and query a running server for live status.
//
//	trainctl name <training-id>
//	trainctl status <training-id> [-server http://localhost:8080]
//	trainctl logs <training-id> [-server http://localhost:8080]
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/trainops/trainerd/training"
)

func main() {
	if len(os.Args) < 3 {
		usage()
	}

	command := os.Args[1]
	trainingID := os.Args[2]

	flags := flag.NewFlagSet(command, flag.ExitOnError)
	server := flags.String("server", "http://localhost:8080", "trainerd server address")
	flags.Parse(os.Args[3:])

	switch command {
	case "name":
		name, err := training.TrainerName(trainingID)
		if err != nil {
			fatal(err)
		}
		fmt.Println(name)

	case "status":
		body := get(*server + "/api/v1/trainings/" + trainingID + "/status")

		var status struct {
			Status   string `json:"status"`
			Terminal bool   `json:"terminal"`
		}
		if err := json.Unmarshal(body, &status); err != nil {
			fatal(err)
		}
		fmt.Printf("%s (terminal: %v)\n", status.Status, status.Terminal)

	case "logs":
		os.Stdout.Write(get(*server + "/api/v1/trainings/" + trainingID + "/logs"))

	default:
		usage()
	}
}

func get(url string) []byte {
	resp, err := http.Get(url)
	if err != nil {
		fatal(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		fatal(err)
	}
	if resp.StatusCode != http.StatusOK {
		fatal(fmt.Errorf("server returned %s: %s", resp.Status, body))
	}
	return body
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: trainctl <name|status|logs> <training-id> [-server addr]")
	os.Exit(2)
}

func fatal(err error) {
	fmt.Fprintln(os.Stderr, "trainctl:", err)
	os.Exit(1)
}
