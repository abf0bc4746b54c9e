package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/joho/godotenv"

	"github.com/chikara-ai/backend/internal/analysis/mood"
	"github.com/chikara-ai/backend/internal/config"
	"github.com/chikara-ai/backend/internal/media"
	"github.com/chikara-ai/backend/internal/sanitize"
	"github.com/chikara-ai/backend/internal/service/speech"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)

	if err := godotenv.Load(); err != nil {
		log.Printf("[WARN] failed to load .env, using system environment: %v", err)
	}

	mode := flag.String("mode", "", "check mode: mood, speech, escape or image")
	text := flag.String("text", "", "input text for mood, speech and escape")
	file := flag.String("file", "", "image path for image mode")
	flag.Parse()

	switch *mode {
	case "mood":
		runMood(*text)
	case "speech":
		runSpeech(*text)
	case "escape":
		runEscape(*text)
	case "image":
		runImage(*file)
	default:
		flag.Usage()
		log.Fatal("select a check with -mode=mood|speech|escape|image")
	}
}

func runMood(text string) {
	label := mood.Classify(text)
	log.Printf("mood=%s humor=%q", label, label.Humor())
}

func runSpeech(text string) {
	if strings.TrimSpace(text) == "" {
		log.Fatal("speech mode needs -text")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	u, err := speech.NewService(cfg.Speech).Prepare(text)
	if err != nil {
		log.Fatalf("prepare failed: %v", err)
	}
	printJSON(u)
}

func runEscape(text string) {
	fmt.Println(sanitize.EscapeScriptString(sanitize.StripEmoji(text)))
}

func runImage(path string) {
	if path == "" {
		log.Fatal("image mode needs -file")
	}

	f, err := os.Open(path)
	if err != nil {
		log.Fatalf("open image failed: %v", err)
	}
	defer f.Close()

	img, err := media.ReadImage(f, path, 0)
	if err != nil {
		log.Fatalf("encode failed: %v", err)
	}
	log.Printf("mime=%s base64_len=%d", img.MIMEType, len(img.Base64))
}

func printJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		log.Fatalf("encode output failed: %v", err)
	}
}
