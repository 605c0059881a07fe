package session

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// PromptPersonal collects the personal-info step from stdin.
func PromptPersonal(current FormData) PersonalForm {
	scanner := bufio.NewScanner(os.Stdin)
	ask := func(label, current string) string {
		if current != "" {
			fmt.Printf("%s [%s]: ", label, current)
		} else {
			fmt.Printf("%s: ", label)
		}
		scanner.Scan()
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			return current
		}
		return text
	}

	return PersonalForm{
		Name:         ask("Name", current.Name),
		Email:        ask("Email", current.Email),
		AddressLine1: ask("Address line 1", current.AddressLine1),
		AddressLine2: ask("Address line 2 (optional)", current.AddressLine2),
		City:         ask("City", current.City),
		State:        ask("State", current.State),
		Zipcode:      ask("Zipcode", current.Zipcode),
	}
}

// PromptEducation collects the education step from stdin.
func PromptEducation(current FormData) (isStudying bool, institution string) {
	scanner := bufio.NewScanner(os.Stdin)

	fmt.Print("Currently studying? (y/n): ")
	scanner.Scan()
	answer := strings.ToLower(strings.TrimSpace(scanner.Text()))
	isStudying = answer == "y" || answer == "yes"

	if isStudying {
		if current.Institution != "" {
			fmt.Printf("Institution [%s]: ", current.Institution)
		} else {
			fmt.Print("Institution: ")
		}
		scanner.Scan()
		institution = strings.TrimSpace(scanner.Text())
		if institution == "" {
			institution = current.Institution
		}
	}
	return isStudying, institution
}

// PromptProject collects one project's fields from stdin.
func PromptProject() (name, description string) {
	scanner := bufio.NewScanner(os.Stdin)

	fmt.Print("Project name: ")
	scanner.Scan()
	name = strings.TrimSpace(scanner.Text())

	fmt.Print("Project description: ")
	scanner.Scan()
	description = strings.TrimSpace(scanner.Text())

	return name, description
}
