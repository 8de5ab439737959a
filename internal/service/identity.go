package service

import (
	"fmt"
	"math/rand"
	"strings"
)

// Nombres generados para cuentas nuevas de signup; el usuario puede
// cambiarlos después desde su perfil.
var (
	firstNames = []string{
		"Avery", "Blake", "Casey", "Devon", "Emery", "Finley", "Harper",
		"Jordan", "Kendall", "Logan", "Morgan", "Parker", "Quinn", "Riley",
		"Sawyer", "Taylor",
	}
	lastNames = []string{
		"Adams", "Bennett", "Carter", "Dawson", "Ellis", "Foster", "Grant",
		"Hayes", "Irwin", "Keller", "Mercer", "Norris", "Owens", "Reyes",
		"Sutton", "Walsh",
	}
)

func generateDisplayName() string {
	first := firstNames[rand.Intn(len(firstNames))]
	last := lastNames[rand.Intn(len(lastNames))]
	return first + " " + last
}

func avatarForName(name string) string {
	initials := ""
	for _, part := range strings.Fields(name) {
		initials += strings.ToUpper(part[:1])
		if len(initials) == 2 {
			break
		}
	}
	if initials == "" {
		initials = "GC"
	}
	return fmt.Sprintf("https://avatar.vercel.sh/vercel.svg?text=%s", initials)
}
