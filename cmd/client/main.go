package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/mkrivosheev/formflow/internal/client/session"
)

var (
	version   string
	buildDate string
)

// repl runs the interactive wizard shell, accepting commands to edit
// and save each step of the form.
func repl(s *session.Session) {
	scanner := bufio.NewScanner(os.Stdin)

	for {
		fmt.Print("formflow> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		args := strings.Fields(line)
		if len(args) == 0 {
			continue
		}
		switch args[0] {
		case "help":
			fmt.Println("Available commands: help, show, personal, education, add, edit <id>, remove <id>, projects, submit, exit")
		case "show":
			printForm(s)
		case "personal":
			form := session.PromptPersonal(s.Data())
			if err := s.SavePersonal(context.Background(), form); err != nil {
				fmt.Println("Save failed:", err)
				continue
			}
			fmt.Println("Personal info saved")
		case "education":
			isStudying, institution := session.PromptEducation(s.Data())
			if err := s.SaveEducation(context.Background(), isStudying, institution); err != nil {
				fmt.Println("Save failed:", err)
				continue
			}
			fmt.Println("Education saved")
		case "add":
			p := s.AddProject()
			name, description := session.PromptProject()
			s.UpdateProject(p.ID, name, description)
			fmt.Println("Project added locally:", p.ID)
		case "edit":
			if len(args) < 2 {
				fmt.Println("Usage: edit <id>")
				continue
			}
			name, description := session.PromptProject()
			if s.UpdateProject(args[1], name, description) {
				fmt.Println("Project updated locally")
			} else {
				fmt.Println("Project not found")
			}
		case "remove":
			if len(args) < 2 {
				fmt.Println("Usage: remove <id>")
				continue
			}
			if s.RemoveProject(args[1]) {
				fmt.Println("Project removed locally")
			} else {
				fmt.Println("Project not found")
			}
		case "projects":
			if err := s.SaveProjects(context.Background()); err != nil {
				fmt.Println("Save failed:", err)
				continue
			}
			fmt.Println("Projects saved")
		case "submit":
			if err := s.Submit(context.Background()); err != nil {
				fmt.Println("Submit failed:", err)
				continue
			}
			fmt.Println("Form submitted")
		case "exit":
			fmt.Println("Bye")
			return
		default:
			fmt.Println("Unknown command. Type 'help' for a list of commands.")
		}
	}
}

func printForm(s *session.Session) {
	data := s.Data()
	fmt.Printf("Submission: %s\n", s.SubmissionID())
	fmt.Printf("Name: %s\nEmail: %s\n", data.Name, data.Email)
	fmt.Printf("Address: %s %s, %s %s %s\n", data.AddressLine1, data.AddressLine2, data.City, data.State, data.Zipcode)
	if data.IsStudying {
		fmt.Printf("Studying at: %s\n", data.Institution)
	} else {
		fmt.Println("Not currently studying")
	}
	fmt.Println("Projects:")
	for _, p := range data.Projects {
		fmt.Printf("  %s: %s - %s\n", p.ID, p.Name, p.Description)
	}
}

// main parses command-line flags, hydrates the session, and starts the shell.
func main() {
	var (
		baseURL string
		userID  string
		showVer bool
	)

	flag.StringVar(&baseURL, "url", "http://localhost:8080", "server base URL")
	flag.StringVar(&userID, "user", "", "user identifier from the auth provider")
	flag.BoolVar(&showVer, "version", false, "show build version and date")
	flag.Parse()

	if showVer {
		fmt.Printf("FormFlow Client\nVersion: %s\nBuild Date: %s\n", version, buildDate)
		return
	}

	if userID == "" {
		log.Fatal("please provide -user=<id>")
	}

	s := session.New(baseURL, userID)
	if err := s.Hydrate(context.Background()); err != nil {
		log.Fatal(err)
	}

	repl(s)
}
