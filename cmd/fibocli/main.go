// Command fibocli queries a running fibod daemon. With -n it issues a single
// call; without it, it reads numbers from stdin until EOF or -1.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/codefionn/socks"
	"github.com/codefionn/socks/internal/config"
)

func main() {
	cfgPath := flag.String("config", "", "path to config file (default ./fibod.yaml)")
	n := flag.Int("n", -1, "fibonacci index to request; -1 for interactive mode")
	async := flag.Bool("async", false, "issue the request through CallAsync")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		fatalf("%v", err)
	}
	tr, err := cfg.Transport.New()
	if err != nil {
		fatalf("%v", err)
	}
	client := socks.NewClient(tr)
	defer client.Close()

	if *n >= 0 {
		ask(client, *n, *async)
		return
	}

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("Enter fibonacci index to calculate (or -1 to exit): ")
		if !scanner.Scan() {
			break
		}
		idx, err := strconv.Atoi(strings.TrimSpace(scanner.Text()))
		if err != nil {
			fmt.Fprintln(os.Stderr, "invalid input")
			continue
		}
		if idx == -1 {
			break
		}
		ask(client, idx, *async)
	}
}

func ask(client *socks.Client, n int, async bool) {
	req := socks.Envelope{"n": n}

	var (
		resp socks.Envelope
		err  error
	)
	if async {
		resp, err = client.CallAsync("fibo", req).Get()
	} else {
		resp, err = client.Call("fibo", req)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "request failed: %v\n", err)
		return
	}
	fmt.Printf("fibo(%d) = %v\n", n, resp["result"])
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "fibocli: "+format+"\n", args...)
	os.Exit(1)
}
