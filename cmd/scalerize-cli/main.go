package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/kballard/go-shellquote"
	scalerize "github.com/scalerize/scalerize-go"
	"github.com/scalerize/scalerize-go/protocol"
)

func main() {
	network := flag.String("network", scalerize.DefaultNetwork, "Transport network (unix or tcp)")
	addr := flag.String("addr", scalerize.DefaultAddress, "Server address (socket path or host:port)")
	verbose := flag.Bool("v", false, "Log request/response frames")
	flag.Parse()

	config := scalerize.Config{Network: *network, Address: *addr}
	if *verbose {
		config.Logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}

	session, err := scalerize.Connect(context.Background(), config)
	if err != nil {
		log.Fatal(err)
	}
	defer session.Close()

	fmt.Printf("Connected to %s\n", session.Addr())
	fmt.Println("Type commands. 'help' for information or 'exit' to quit.")

	reader := bufio.NewReader(os.Stdin)

	for {
		fmt.Print("> ")

		line, err := reader.ReadString('\n')
		if err != nil {
			fmt.Println("input error:", err)
			return
		}

		line = strings.TrimSpace(line)

		if line == "" {
			continue
		}

		if line == "exit" {
			return
		}

		args, err := shellquote.Split(line)
		if err != nil {
			fmt.Println("parse error:", err)
			continue
		}

		if err := run(session, args); err != nil {
			if errors.Is(err, scalerize.ErrSessionBroken) {
				log.Fatal(err)
			}
			fmt.Println(err)
		}
	}
}

func run(session *scalerize.Session, args []string) error {
	ctx := context.Background()

	switch args[0] {
	case "help":
		printHelp()
		return nil

	case "put":
		store, key, err := storeAndKey(args, 4)
		if err != nil {
			return err
		}
		if err := session.Put(ctx, store, key, []byte(args[3])); err != nil {
			return err
		}
		fmt.Println("OK (pending until write)")
		return nil

	case "get":
		store, key, err := storeAndKey(args, 3)
		if err != nil {
			return err
		}
		value, err := session.Get(ctx, store, key)
		if err != nil {
			return err
		}
		fmt.Printf("%q\n", value)
		return nil

	case "delete":
		store, key, err := storeAndKey(args, 3)
		if err != nil {
			return err
		}
		if err := session.Delete(ctx, store, key); err != nil {
			return err
		}
		fmt.Println("OK")
		return nil

	case "write":
		if err := session.Write(ctx); err != nil {
			return err
		}
		fmt.Println("OK")
		return nil

	case "drain":
		chunks, err := session.DrainPending()
		for _, chunk := range chunks {
			fmt.Printf("% x\n", chunk)
		}
		if err != nil {
			return err
		}
		fmt.Printf("drained %d chunk(s)\n", len(chunks))
		return nil
	}

	return fmt.Errorf("unknown command %q, try 'help'", args[0])
}

// storeAndKey parses "<cmd> <store> <key> ..." arguments.
func storeAndKey(args []string, want int) (protocol.StoreID, []byte, error) {
	if len(args) != want {
		return 0, nil, fmt.Errorf("usage: %s", usage(args[0]))
	}

	store, err := strconv.ParseUint(args[1], 10, 8)
	if err != nil {
		return 0, nil, fmt.Errorf("store must be 0-255: %v", err)
	}

	return protocol.StoreID(store), []byte(args[2]), nil
}

func usage(cmd string) string {
	switch cmd {
	case "put":
		return "put <store> <key> <value>"
	case "get":
		return "get <store> <key>"
	case "delete":
		return "delete <store> <key>"
	}
	return cmd
}

func printHelp() {
	fmt.Println(`Commands:
  put <store> <key> <value>  Stage a value under key (commit with 'write')
  get <store> <key>          Fetch the committed value under key
  delete <store> <key>       Remove a key
  write                      Commit pending mutations
  drain                      Dump any unsolicited buffered bytes
  help                       Show this help
  exit                       Quit`)
}
