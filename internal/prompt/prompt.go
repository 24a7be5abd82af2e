// Package prompt asks the user for wallet passphrases and seeds on the
// terminal.
package prompt

import (
	"bufio"
	"bytes"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/czh0526/btc-descriptors/seed"
	"golang.org/x/term"
)

// ErrMismatch is returned when a confirmed passphrase differs from the
// first entry.
var ErrMismatch = errors.New("passphrases do not match")

// Prompter reads answers from in and writes questions to out. When in is
// a terminal, passphrases are read without echo.
type Prompter struct {
	in  *bufio.Reader
	out io.Writer

	// readPassword reads a line without echo. Nil reads from in.
	readPassword func() ([]byte, error)
}

// New returns a Prompter over the given streams.
func New(in io.Reader, out io.Writer) *Prompter {
	return &Prompter{
		in:  bufio.NewReader(in),
		out: out,
	}
}

// Stdio returns a Prompter over the process' standard streams.
func Stdio() *Prompter {
	p := New(os.Stdin, os.Stdout)
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		p.readPassword = func() ([]byte, error) {
			pass, err := term.ReadPassword(fd)
			fmt.Fprintln(p.out)
			return pass, err
		}
	}
	return p
}

func (p *Prompter) readLine() (string, error) {
	line, err := p.in.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// promptList asks for one of the values in list. An empty answer selects
// defaultEntry.
func (p *Prompter) promptList(prefix string, validResponses []string,
	defaultEntry string) (string, error) {

	prompt := fmt.Sprintf("%s (%s) [%s]: ", prefix,
		strings.Join(validResponses, "/"), defaultEntry)

	for {
		fmt.Fprint(p.out, prompt)
		reply, err := p.readLine()
		if err != nil {
			return "", err
		}
		reply = strings.ToLower(reply)
		if reply == "" {
			reply = defaultEntry
		}

		for _, valid := range validResponses {
			if reply == valid {
				return reply, nil
			}
		}
	}
}

// promptListBool asks a yes/no question.
func (p *Prompter) promptListBool(prefix string, defaultEntry string) (bool, error) {
	response, err := p.promptList(
		prefix, []string{"n", "no", "y", "yes"}, defaultEntry,
	)
	if err != nil {
		return false, err
	}
	return response == "yes" || response == "y", nil
}

func (p *Prompter) readPass() ([]byte, error) {
	if p.readPassword != nil {
		return p.readPassword()
	}
	line, err := p.readLine()
	if err != nil {
		return nil, err
	}
	return []byte(line), nil
}

// Passphrase asks for a passphrase. When confirm is set it is asked twice
// and both entries must match. Empty entries are asked again.
func (p *Prompter) Passphrase(prefix string, confirm bool) ([]byte, error) {
	for {
		fmt.Fprintf(p.out, "%s: ", prefix)
		pass, err := p.readPass()
		if err != nil {
			return nil, err
		}
		if len(pass) == 0 {
			continue
		}
		if !confirm {
			return pass, nil
		}

		fmt.Fprint(p.out, "Confirm passphrase: ")
		again, err := p.readPass()
		if err != nil {
			return nil, err
		}
		if !bytes.Equal(pass, again) {
			fmt.Fprintln(p.out, "The entered passphrases do not match")
			continue
		}
		return pass, nil
	}
}

// Seed asks whether an existing mnemonic should be restored. If so it reads
// the words and an optional mnemonic passphrase; otherwise it generates a
// new 24 word mnemonic, shows it, and waits for the user to confirm it was
// written down.
func (p *Prompter) Seed() (*seed.MnemonicSeed, error) {
	restore, err := p.promptListBool(
		"Do you have an existing wallet mnemonic you want to use?", "no",
	)
	if err != nil {
		return nil, err
	}

	if restore {
		for {
			fmt.Fprint(p.out, "Enter the mnemonic words: ")
			words, err := p.readLine()
			if err != nil {
				return nil, err
			}
			fmt.Fprint(p.out, "Enter the mnemonic passphrase "+
				"(empty for none): ")
			pass, err := p.readPass()
			if err != nil {
				return nil, err
			}

			s, err := seed.FromMnemonic(words, string(pass))
			if err != nil {
				fmt.Fprintf(p.out, "Invalid mnemonic: %v\n", err)
				continue
			}
			return s, nil
		}
	}

	s, err := seed.NewMnemonicSeed(rand.Reader, seed.RecommendedEntropyBits, "")
	if err != nil {
		return nil, err
	}
	words, err := s.Mnemonic()
	if err != nil {
		return nil, err
	}

	fmt.Fprintf(p.out, "Your wallet generation mnemonic is:\n\n%s\n\n", words)
	fmt.Fprintln(p.out, "IMPORTANT: Keep the mnemonic in a safe place as "+
		"you will NOT be able to restore your wallet without it.")

	for {
		fmt.Fprint(p.out, `Once you have stored the mnemonic in a safe `+
			`and secure location, enter "OK" to continue: `)
		confirm, err := p.readLine()
		if err != nil {
			s.Zero()
			return nil, err
		}
		if strings.ToUpper(confirm) == "OK" {
			return s, nil
		}
	}
}
