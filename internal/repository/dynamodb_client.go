package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"megan-waseller/internal/domain"
)

const (
	skPrefixMsg = "MSG#"
	skSeed      = skPrefixMsg + "0"
	skMeta      = "META#"
	ttlDuration = 30 * 24 * time.Hour // 30-day TTL
	skTimestamp = "20060102T150405.000000000Z"
)

// dynamodbAPI is the minimal DynamoDB interface required by Client.
// Defined here for testability.
type dynamodbAPI interface {
	PutItem(ctx context.Context, in *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	Query(ctx context.Context, in *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	TransactWriteItems(ctx context.Context, in *dynamodb.TransactWriteItemsInput, optFns ...func(*dynamodb.Options)) (*dynamodb.TransactWriteItemsOutput, error)
}

// Client stores conversation transcripts in a DynamoDB table, one item per
// utterance plus a metadata item per conversation.
type Client struct {
	api       dynamodbAPI
	tableName string
	now       func() time.Time
}

// New creates a new repository Client.
func New(api dynamodbAPI, tableName string) (*Client, error) {
	if api == nil {
		return nil, errors.New("repository: api must not be nil")
	}
	if strings.TrimSpace(tableName) == "" {
		return nil, errors.New("repository: table name must not be empty")
	}
	return &Client{api: api, tableName: tableName, now: time.Now}, nil
}

// convPK returns the DynamoDB partition key for a conversation.
func convPK(address string) string {
	return "CONV#" + address
}

// msgSK returns a sort key that orders utterances by write time, then by
// their position within one append.
func msgSK(ts time.Time, seq int) string {
	return fmt.Sprintf("%s%s#%02d", skPrefixMsg, ts.UTC().Format(skTimestamp), seq)
}

func (c *Client) ttlValue() int64 {
	return c.now().Add(ttlDuration).Unix()
}

// LoadOrCreate returns the stored transcript, writing seed first when the
// conversation has no utterances yet.
func (c *Client) LoadOrCreate(ctx context.Context, address string, seed domain.Utterance) (domain.Transcript, error) {
	msgs, err := c.GetHistory(ctx, address)
	if err != nil {
		return nil, err
	}
	if len(msgs) > 0 {
		return toTranscript(msgs), nil
	}

	msg := c.newMessage(address, skSeed, seed)
	if err := c.WriteMessage(ctx, msg); err != nil {
		var ccf *types.ConditionalCheckFailedException
		if !errors.As(err, &ccf) {
			return nil, fmt.Errorf("repository: LoadOrCreate seed: %w", err)
		}
		// Another writer seeded the conversation first.
		msgs, err = c.GetHistory(ctx, address)
		if err != nil {
			return nil, err
		}
		return toTranscript(msgs), nil
	}
	return domain.Transcript{seed}, nil
}

// Append writes utterances and refreshes the conversation metadata in one
// transaction. The seed item is rewritten with the same TTL so it never
// expires ahead of the utterances that follow it.
func (c *Client) Append(ctx context.Context, address string, seed domain.Utterance, utterances ...domain.Utterance) error {
	if len(utterances) == 0 {
		return nil
	}
	now := c.now()
	msgs := make([]domain.Message, 0, len(utterances))
	for i, u := range utterances {
		msgs = append(msgs, c.newMessage(address, msgSK(now, i), u))
	}
	seedMsg := c.newMessage(address, skSeed, seed)
	if err := c.save(ctx, &seedMsg, msgs, c.NewConversationMeta(address)); err != nil {
		return fmt.Errorf("repository: Append: %w", err)
	}
	return nil
}

// GetHistory queries all MSG# items for a conversation in chronological order.
func (c *Client) GetHistory(ctx context.Context, address string) ([]domain.Message, error) {
	in := &dynamodb.QueryInput{
		TableName:              aws.String(c.tableName),
		KeyConditionExpression: aws.String("PK = :pk AND begins_with(SK, :prefix)"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk":     &types.AttributeValueMemberS{Value: convPK(address)},
			":prefix": &types.AttributeValueMemberS{Value: skPrefixMsg},
		},
		ScanIndexForward: aws.Bool(true),
		ConsistentRead:   aws.Bool(true),
	}

	var msgs []domain.Message
	for {
		out, err := c.api.Query(ctx, in)
		if err != nil {
			return nil, fmt.Errorf("repository: GetHistory query: %w", err)
		}
		for _, item := range out.Items {
			msg, err := itemToMessage(item)
			if err != nil {
				return nil, fmt.Errorf("repository: GetHistory unmarshal: %w", err)
			}
			msgs = append(msgs, msg)
		}
		if len(out.LastEvaluatedKey) == 0 {
			return msgs, nil
		}
		in.ExclusiveStartKey = out.LastEvaluatedKey
	}
}

// WriteMessage persists a single utterance item if the key is unused.
func (c *Client) WriteMessage(ctx context.Context, msg domain.Message) error {
	if msg.PK == "" || msg.SK == "" {
		return errors.New("repository: WriteMessage: PK and SK are required")
	}

	_, err := c.api.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(c.tableName),
		Item:                messageItem(msg),
		ConditionExpression: aws.String("attribute_not_exists(PK) AND attribute_not_exists(SK)"),
	})
	if err != nil {
		return fmt.Errorf("repository: WriteMessage: %w", err)
	}
	return nil
}

// SaveUtterances writes the messages and updated metadata in one transaction.
func (c *Client) SaveUtterances(ctx context.Context, msgs []domain.Message, meta domain.ConversationMeta) error {
	return c.save(ctx, nil, msgs, meta)
}

// save transacts msgs and meta, plus an unconditional put of seed when set.
func (c *Client) save(ctx context.Context, seed *domain.Message, msgs []domain.Message, meta domain.ConversationMeta) error {
	if meta.PK == "" || meta.SK == "" {
		return errors.New("repository: SaveUtterances: meta PK and SK are required")
	}

	items := make([]types.TransactWriteItem, 0, len(msgs)+2)
	if seed != nil {
		items = append(items, types.TransactWriteItem{
			Put: &types.Put{
				TableName: aws.String(c.tableName),
				Item:      messageItem(*seed),
			},
		})
	}
	for _, msg := range msgs {
		if msg.PK == "" || msg.SK == "" {
			return errors.New("repository: SaveUtterances: message PK and SK are required")
		}
		items = append(items, types.TransactWriteItem{
			Put: &types.Put{
				TableName:           aws.String(c.tableName),
				Item:                messageItem(msg),
				ConditionExpression: aws.String("attribute_not_exists(PK) AND attribute_not_exists(SK)"),
			},
		})
	}
	items = append(items, types.TransactWriteItem{
		Put: &types.Put{
			TableName: aws.String(c.tableName),
			Item:      metaItem(meta),
		},
	})

	_, err := c.api.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{TransactItems: items})
	if err != nil {
		return fmt.Errorf("repository: SaveUtterances: %w", err)
	}
	return nil
}

func (c *Client) newMessage(address, sk string, u domain.Utterance) domain.Message {
	return domain.Message{
		PK:      convPK(address),
		SK:      sk,
		Address: address,
		Role:    u.Role,
		Content: u.Content,
		TTL:     c.ttlValue(),
	}
}

// NewConversationMeta constructs the metadata record for address.
func (c *Client) NewConversationMeta(address string) domain.ConversationMeta {
	return domain.ConversationMeta{
		PK:           convPK(address),
		SK:           skMeta,
		Address:      address,
		LastActivity: c.now().UTC().Format(time.RFC3339),
		TTL:          c.ttlValue(),
	}
}

func toTranscript(msgs []domain.Message) domain.Transcript {
	t := make(domain.Transcript, 0, len(msgs))
	for _, m := range msgs {
		t = append(t, domain.Utterance{Role: m.Role, Content: m.Content})
	}
	return t
}

// itemToMessage converts a DynamoDB attribute map to a Message.
func itemToMessage(item map[string]types.AttributeValue) (domain.Message, error) {
	pk, err := strAttr(item, "PK")
	if err != nil {
		return domain.Message{}, err
	}
	sk, err := strAttr(item, "SK")
	if err != nil {
		return domain.Message{}, err
	}
	role, err := strAttr(item, "role")
	if err != nil {
		return domain.Message{}, err
	}
	content, err := strAttr(item, "content")
	if err != nil {
		return domain.Message{}, err
	}
	address, _ := strAttr(item, "address") // allow empty

	return domain.Message{
		PK:      pk,
		SK:      sk,
		Address: address,
		Role:    role,
		Content: content,
	}, nil
}

func messageItem(msg domain.Message) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"PK":      &types.AttributeValueMemberS{Value: msg.PK},
		"SK":      &types.AttributeValueMemberS{Value: msg.SK},
		"address": &types.AttributeValueMemberS{Value: msg.Address},
		"role":    &types.AttributeValueMemberS{Value: msg.Role},
		"content": &types.AttributeValueMemberS{Value: msg.Content},
		"ttl":     &types.AttributeValueMemberN{Value: fmt.Sprintf("%d", msg.TTL)},
	}
}

func metaItem(meta domain.ConversationMeta) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"PK":           &types.AttributeValueMemberS{Value: meta.PK},
		"SK":           &types.AttributeValueMemberS{Value: meta.SK},
		"address":      &types.AttributeValueMemberS{Value: meta.Address},
		"lastActivity": &types.AttributeValueMemberS{Value: meta.LastActivity},
		"ttl":          &types.AttributeValueMemberN{Value: fmt.Sprintf("%d", meta.TTL)},
	}
}

func strAttr(item map[string]types.AttributeValue, key string) (string, error) {
	v, ok := item[key]
	if !ok {
		return "", fmt.Errorf("repository: missing attribute %q", key)
	}
	s, ok := v.(*types.AttributeValueMemberS)
	if !ok {
		return "", fmt.Errorf("repository: attribute %q is not a string", key)
	}
	return s.Value, nil
}
