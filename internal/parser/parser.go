package parser

import (
	"bufio"
	"io"
	"os"
	"regexp"
	"strings"

	"github.com/conorfennell/studydeck/internal/domain"
)

const (
	questionPrefix = "Q:"
	answerPrefix   = "A:"
	contextPrefix  = "C:"

	// headingBodyLines is how many lines under a heading become its answer.
	headingBodyLines = 3
)

var (
	headingRe      = regexp.MustCompile(`^#+\s*(.+?)\s*$`)
	bulletRe       = regexp.MustCompile(`^[-*]\s*([^:]+?)\s*:\s*(.+?)\s*$`)
	inlineAnswerRe = regexp.MustCompile(`(?i)\s+A:\s*`)
)

type state int

const (
	seeking state = iota
	readingQuestion
	readingAnswer
	readingContext
)

// ParseFile reads a file from the given path and extracts all cards.
func ParseFile(path string) ([]domain.Card, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	return Parse(file)
}

// Parse reads notes from an io.Reader and extracts cards from three shapes:
// Q:/A:/C: blocks, "- term: definition" bullets, and headings followed by
// up to three lines of text. Prefixes match in either case and the answer
// may share the question's line. A question with no answer is dropped.
// Only Front, Back and Context are filled in.
func Parse(r io.Reader) ([]domain.Card, error) {
	scanner := bufio.NewScanner(r)
	var cards []domain.Card
	var currentCard domain.Card
	var currentBlock []string
	currentState := seeking

	var heading string
	var headingBody []string

	flushBlock := func() {
		if len(currentBlock) == 0 {
			return
		}
		content := strings.TrimSpace(strings.Join(currentBlock, "\n"))
		switch currentState {
		case readingQuestion:
			currentCard.Front = content
		case readingAnswer:
			currentCard.Back = content
		case readingContext:
			currentCard.Context = content
		}
		currentBlock = nil
	}

	finishCard := func() {
		flushBlock()
		if currentCard.Front != "" && currentCard.Back != "" {
			cards = append(cards, currentCard)
		}
		currentCard = domain.Card{}
		currentState = seeking
	}

	finishHeading := func() {
		if heading != "" && len(headingBody) > 0 {
			cards = append(cards, domain.Card{Front: heading, Back: strings.Join(headingBody, " ")})
		}
		heading = ""
		headingBody = nil
	}

	for scanner.Scan() {
		line := scanner.Text()
		trimmed := strings.TrimSpace(line)

		isQ := hasPrefixFold(line, questionPrefix)
		isA := hasPrefixFold(line, answerPrefix)
		isC := hasPrefixFold(line, contextPrefix)
		isSeparator := trimmed == "---"
		headingMatch := headingRe.FindStringSubmatch(trimmed)

		if isSeparator {
			finishCard()
			finishHeading()
			continue
		}

		if headingMatch != nil {
			finishCard()
			finishHeading()
			heading = headingMatch[1]
			continue
		}

		if isQ || isA || isC {
			flushBlock()
			finishHeading()

			switch {
			case isQ:
				if currentState != seeking { // A new question always starts a new card
					finishCard()
				}
				currentState = readingQuestion
				question := stripPrefix(line, questionPrefix)
				if loc := inlineAnswerRe.FindStringIndex(question); loc != nil {
					currentBlock = append(currentBlock, question[:loc[0]])
					flushBlock()
					currentState = readingAnswer
					question = question[loc[1]:]
				}
				currentBlock = append(currentBlock, question)
			case isA:
				currentState = readingAnswer
				currentBlock = append(currentBlock, stripPrefix(line, answerPrefix))
			case isC:
				currentState = readingContext
				currentBlock = append(currentBlock, stripPrefix(line, contextPrefix))
			}
			continue
		}

		if currentState != seeking {
			currentBlock = append(currentBlock, line)
			continue
		}

		if m := bulletRe.FindStringSubmatch(trimmed); m != nil {
			cards = append(cards, domain.Card{Front: m[1], Back: m[2]})
		}

		if heading != "" && trimmed != "" {
			headingBody = append(headingBody, trimmed)
			if len(headingBody) >= headingBodyLines {
				finishHeading()
			}
		}
	}

	finishCard() // Finish the very last card in the file
	finishHeading()

	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return cards, nil
}

func hasPrefixFold(line, prefix string) bool {
	return len(line) >= len(prefix) && strings.EqualFold(line[:len(prefix)], prefix)
}

func stripPrefix(line, prefix string) string {
	content := line[len(prefix):]
	return strings.TrimPrefix(content, " ")
}
