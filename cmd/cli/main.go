// Command dk is a CLI client for the deck-keeper service.
package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/golang-jwt/jwt/v5"
)

// ---- token store ----

type tokenFile struct {
	AccessToken string    `json:"access_token"`
	Username    string    `json:"username"`
	ExpiresAt   time.Time `json:"expires_at"`
}

func cfgDir() string {
	if v := os.Getenv("XDG_CONFIG_HOME"); v != "" {
		return filepath.Join(v, "deck-keeper")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "deck-keeper")
}

func tokenPath() string { return filepath.Join(cfgDir(), "token.json") }

func saveToken(tok, username string, exp time.Time) error {
	_ = os.MkdirAll(cfgDir(), 0o700)
	f, err := os.Create(tokenPath())
	if err != nil {
		return err
	}
	defer f.Close()
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(tokenFile{AccessToken: tok, Username: username, ExpiresAt: exp})
}

func loadToken() (string, error) {
	b, err := os.ReadFile(tokenPath())
	if err != nil {
		return "", err
	}
	var tf tokenFile
	if err := json.Unmarshal(b, &tf); err != nil {
		return "", err
	}
	if tf.AccessToken == "" || time.Now().After(tf.ExpiresAt) {
		return "", errors.New("no valid token (login required)")
	}
	return tf.AccessToken, nil
}

// tokenExpiry pulls exp from the JWT without verifying the signature;
// only the server can verify, the client just needs a refresh hint.
func tokenExpiry(tok string) time.Time {
	var claims jwt.RegisteredClaims
	_, _ = jwt.ParseWithClaims(tok, &claims, func(*jwt.Token) (any, error) { return nil, nil },
		jwt.WithoutClaimsValidation(),
	)
	if claims.ExpiresAt != nil {
		return claims.ExpiresAt.Time
	}
	return time.Now().Add(15 * time.Minute)
}

// ---- http client ----

func newClient(baseURL, bearer string) *resty.Client {
	c := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(30 * time.Second)
	if bearer != "" {
		c.SetAuthToken(bearer)
	}
	return c
}

// run executes the request and prints the response body. Mutations
// answer with plain text, listings with JSON; both print as-is.
func run(req *resty.Request, method, path string) {
	resp, err := req.Execute(method, path)
	if err != nil {
		fail(err)
	}
	body := resp.String()
	if resp.IsError() {
		fmt.Fprintln(os.Stderr, body)
		os.Exit(1)
	}
	fmt.Println(body)
}

func authed(baseURL string) *resty.Client {
	token, err := loadToken()
	if err != nil {
		fail(err)
	}
	return newClient(baseURL, token)
}

func fail(err error) {
	fmt.Fprintln(os.Stderr, "error:", err)
	os.Exit(1)
}

func usage() {
	fmt.Fprintf(os.Stderr, `dk CLI
Usage:
  dk -addr URL <cmd> [args]

Commands:
  version
  register     -u <username> -p <password>
  login        -u <username> -p <password>        (saves token)
  refresh                                      (re-issues saved token)
  deck-add     -name <name>
  deck-list
  deck-update  -guid <uuid> -name <name>
  deck-rm      -guid <uuid>
  card-add     -deck <uuid> [-front <text>] [-back <text>]
  card-list    -deck <uuid>
  card-due     -deck <uuid>
  card-update  -guid <uuid> [-front <text>] [-back <text>]
  card-rm      -guid <uuid>
  review       -guid <uuid> -grade <again|hard|good|easy>
`)
	os.Exit(2)
}

var (
	version   = "dev"
	buildDate = "unknown"
)

type loginResponse struct {
	Token    string `json:"token"`
	Username string `json:"username"`
}

// main dispatches subcommands against the REST API.
func main() {
	addr := flag.String("addr", "http://localhost:8080", "server base URL")
	flag.Usage = usage
	flag.Parse()

	if flag.NArg() < 1 {
		usage()
	}
	cmd := flag.Arg(0)
	args := flag.Args()[1:]

	switch cmd {

	case "version":
		fmt.Printf("dk %s (%s)\n", version, buildDate)

	case "register":
		fs := flag.NewFlagSet("register", flag.ExitOnError)
		u := fs.String("u", "", "username")
		p := fs.String("p", "", "password")
		_ = fs.Parse(args)
		if *u == "" || *p == "" {
			fmt.Fprintln(os.Stderr, "need -u and -p")
			os.Exit(1)
		}
		run(newClient(*addr, "").R().
			SetBody(map[string]string{"username": *u, "password": *p}),
			resty.MethodPost, "/register")

	case "login":
		fs := flag.NewFlagSet("login", flag.ExitOnError)
		u := fs.String("u", "", "username")
		p := fs.String("p", "", "password")
		_ = fs.Parse(args)
		if *u == "" || *p == "" {
			fmt.Fprintln(os.Stderr, "need -u and -p")
			os.Exit(1)
		}
		doLogin(newClient(*addr, "").R().
			SetBody(map[string]string{"username": *u, "password": *p}))

	case "refresh":
		doLogin(authed(*addr).R())

	case "deck-add":
		fs := flag.NewFlagSet("deck-add", flag.ExitOnError)
		name := fs.String("name", "", "deck name")
		_ = fs.Parse(args)
		run(authed(*addr).R().
			SetBody(map[string]string{"deckName": *name}),
			resty.MethodPost, "/deck/add")

	case "deck-list":
		run(authed(*addr).R(), resty.MethodGet, "/deck/list")

	case "deck-update":
		fs := flag.NewFlagSet("deck-update", flag.ExitOnError)
		guid := fs.String("guid", "", "deck GUID")
		name := fs.String("name", "", "new deck name")
		_ = fs.Parse(args)
		run(authed(*addr).R().
			SetBody(map[string]string{"deckGuid": *guid, "deckName": *name}),
			resty.MethodPatch, "/deck/update")

	case "deck-rm":
		fs := flag.NewFlagSet("deck-rm", flag.ExitOnError)
		guid := fs.String("guid", "", "deck GUID")
		_ = fs.Parse(args)
		run(authed(*addr).R().
			SetBody(map[string]string{"deckGuid": *guid}),
			resty.MethodDelete, "/deck/delete")

	case "card-add":
		fs := flag.NewFlagSet("card-add", flag.ExitOnError)
		deck := fs.String("deck", "", "deck GUID")
		front := fs.String("front", "", "card front")
		back := fs.String("back", "", "card back")
		_ = fs.Parse(args)
		run(authed(*addr).R().
			SetBody(map[string]string{"deckGuid": *deck, "cardFront": *front, "cardBack": *back}),
			resty.MethodPost, "/card/add")

	case "card-list":
		fs := flag.NewFlagSet("card-list", flag.ExitOnError)
		deck := fs.String("deck", "", "deck GUID")
		_ = fs.Parse(args)
		run(authed(*addr).R().
			SetBody(map[string]string{"deckGuid": *deck}),
			resty.MethodPost, "/card/list")

	case "card-due":
		fs := flag.NewFlagSet("card-due", flag.ExitOnError)
		deck := fs.String("deck", "", "deck GUID")
		_ = fs.Parse(args)
		run(authed(*addr).R().
			SetBody(map[string]string{"deckGuid": *deck}),
			resty.MethodPost, "/card/due")

	case "card-update":
		fs := flag.NewFlagSet("card-update", flag.ExitOnError)
		guid := fs.String("guid", "", "card GUID")
		front := fs.String("front", "", "new front")
		back := fs.String("back", "", "new back")
		_ = fs.Parse(args)
		body := map[string]string{"cardGuid": *guid}
		if *front != "" {
			body["cardFront"] = *front
		}
		if *back != "" {
			body["cardBack"] = *back
		}
		run(authed(*addr).R().SetBody(body), resty.MethodPatch, "/card/update")

	case "card-rm":
		fs := flag.NewFlagSet("card-rm", flag.ExitOnError)
		guid := fs.String("guid", "", "card GUID")
		_ = fs.Parse(args)
		run(authed(*addr).R().
			SetBody(map[string]string{"cardGuid": *guid}),
			resty.MethodDelete, "/card/delete")

	case "review":
		fs := flag.NewFlagSet("review", flag.ExitOnError)
		guid := fs.String("guid", "", "card GUID")
		grade := fs.String("grade", "", "again|hard|good|easy")
		_ = fs.Parse(args)
		run(authed(*addr).R().
			SetBody(map[string]string{"cardGuid": *guid, "grade": *grade}),
			resty.MethodPost, "/card/review")

	default:
		usage()
	}
}

// doLogin posts to /login and saves the returned token.
func doLogin(req *resty.Request) {
	var out loginResponse
	resp, err := req.SetResult(&out).Execute(resty.MethodPost, "/login")
	if err != nil {
		fail(err)
	}
	if resp.IsError() {
		fmt.Fprintln(os.Stderr, resp.String())
		os.Exit(1)
	}
	if err := saveToken(out.Token, out.Username, tokenExpiry(out.Token)); err != nil {
		fail(err)
	}
	fmt.Println("ok")
}
