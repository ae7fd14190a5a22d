package bot

import (
	"context"
	"regexp"

	"github.com/hearthlabs/hearth/internal/threads"
	"github.com/hearthlabs/hearth/pkg/domain"
	"github.com/hearthlabs/hearth/pkg/ports"
)

var walletAddressPattern = regexp.MustCompile(`^0x[a-fA-F0-9]{40}$`)

const (
	noGuildsNotice = "You are not a part of any communities. " +
		"Please run the join command in a guild you are in."
	threadNameMetaKey = "thread_name"
	daysMetaKey       = "days"
	guildsMetaKey     = "guilds"
)

// Join opens the onboarding conversation for a user who ran the join
// command in a guild. The welcome prompt goes to the user's DM channel.
func (d *Dispatcher) Join(ctx context.Context, userID, guildID, dmChannelID, wallet string) error {
	if !walletAddressPattern.MatchString(wallet) {
		_, err := d.msgr.SendMessage(ctx, dmChannelID, "Not a valid wallet address")
		return err
	}

	return d.sessions.WithLock(ctx, userID, func(ctx context.Context) error {
		profile, err := d.profiles.FindUser(ctx, userID, guildID)
		if err != nil {
			return err
		}
		if profile == nil {
			profile, err = d.profiles.CreateUser(ctx, userID, guildID)
			if err != nil {
				return err
			}
		}
		if err := d.profiles.UpdateUserField(ctx, profile.ID, ports.FieldWallet, wallet); err != nil {
			return err
		}

		guildName := guildID
		if guild, err := d.msgr.FetchGuild(ctx, guildID); err == nil && guild != nil {
			guildName = guild.Name
		}
		welcome, err := d.msgr.SendEmbed(ctx, dmChannelID, &ports.Embed{
			Title: "Welcome",
			Description: "Welcome! We're excited to have you on board. To help " +
				"automate the gathering of your contributions to " + guildName +
				" we need some information. You can skip any request with the " +
				threads.SkipEmoji + " emoji!",
		})
		if err != nil {
			return err
		}

		d.observeStart(domain.ThreadOnboarding)
		ev := &ports.Message{ID: welcome.ID, ChannelID: dmChannelID, AuthorID: userID}
		return d.finishTurn(ctx, domain.ThreadOnboarding, dmChannelID, userID,
			d.registry.Start(ctx, domain.ThreadOnboarding, userID, guildID, ev))
	})
}

// Report sends the contribution report link. Inside a guild it answers
// immediately; in a DM it opens a guild-select that jumps into the report
// thread.
func (d *Dispatcher) Report(ctx context.Context, userID, guildID, channelID string) error {
	return d.sessions.WithLock(ctx, userID, func(ctx context.Context) error {
		if guildID != "" {
			d.observeStart(domain.ThreadReport)
			ev := &ports.Message{ChannelID: channelID, AuthorID: userID}
			return d.finishTurn(ctx, domain.ThreadReport, channelID, userID,
				d.registry.Start(ctx, domain.ThreadReport, userID, guildID, ev))
		}
		meta := map[string]any{threadNameMetaKey: string(domain.ThreadReport)}
		return d.openGuildSelect(ctx, userID, channelID,
			"Which community would you like to report a contribution to?", meta)
	})
}

// UpdateProfile opens the field-update conversation, prefixed by a guild
// picker.
func (d *Dispatcher) UpdateProfile(ctx context.Context, userID, channelID string) error {
	return d.sessions.WithLock(ctx, userID, func(ctx context.Context) error {
		return d.openGuildPickerFlow(ctx, domain.ThreadUpdateProfile, userID, channelID,
			"Which community profile would you like to update?", nil)
	})
}

// Points shows the user's contribution table for a reporting window.
// Inside a guild it runs directly; in a DM it opens a guild-select that
// jumps into the points thread.
func (d *Dispatcher) Points(ctx context.Context, userID, guildID, channelID, days string) error {
	return d.sessions.WithLock(ctx, userID, func(ctx context.Context) error {
		if guildID != "" {
			if err := d.registry.Seed(ctx, domain.ThreadPoints, userID, guildID, "",
				map[string]any{daysMetaKey: days}); err != nil {
				return err
			}
			record, err := d.store.Load(ctx, userID)
			if err != nil {
				return err
			}
			t, err := d.registry.Hydrate(ctx, record, userID)
			if err != nil {
				return err
			}
			d.observeStart(domain.ThreadPoints)
			ev := &ports.Message{ChannelID: channelID, AuthorID: userID}
			return d.finishTurn(ctx, domain.ThreadPoints, channelID, userID,
				t.HandleMessage(ctx, ev))
		}
		meta := map[string]any{
			threadNameMetaKey: string(domain.ThreadPoints),
			daysMetaKey:       days,
		}
		return d.openGuildSelect(ctx, userID, channelID,
			"Which community would you like to list engagements for?", meta)
	})
}

// AddGuild opens the community-registration conversation.
func (d *Dispatcher) AddGuild(ctx context.Context, userID, channelID string) error {
	return d.sessions.WithLock(ctx, userID, func(ctx context.Context) error {
		_, err := d.msgr.SendEmbed(ctx, channelID, &ports.Embed{
			Title: "Add guild",
			Description: "Add a new guild so that you can report your " +
				"contributions, even if the bot hasn't been added to the server.",
		})
		if err != nil {
			return err
		}
		d.observeStart(domain.ThreadAddGuild)
		ev := &ports.Message{ChannelID: channelID, AuthorID: userID}
		return d.finishTurn(ctx, domain.ThreadAddGuild, channelID, userID,
			d.registry.Start(ctx, domain.ThreadAddGuild, userID, "", ev))
	})
}

// InitialContributions opens the starter-task conversation, prefixed by a
// guild picker.
func (d *Dispatcher) InitialContributions(ctx context.Context, userID, channelID string) error {
	return d.sessions.WithLock(ctx, userID, func(ctx context.Context) error {
		return d.openGuildPickerFlow(ctx, domain.ThreadInitialContributions, userID, channelID,
			"Which community would you like to add your initial contributions to?", nil)
	})
}

// openGuildPickerFlow seeds a flow whose root is the shared guild-select
// step: the picker embed goes out and the record waits for the reaction.
func (d *Dispatcher) openGuildPickerFlow(ctx context.Context, key domain.ThreadKey, userID, channelID, prompt string, extraMeta map[string]any) error {
	promptID, choices, err := d.sendGuildPicker(ctx, userID, channelID, prompt)
	if err != nil || choices == nil {
		return err
	}

	meta := map[string]any{guildsMetaKey: choices}
	for k, v := range extraMeta {
		meta[k] = v
	}
	d.observeStart(key)
	return d.registry.Seed(ctx, key, userID, "", promptID, meta)
}

// openGuildSelect seeds the standalone guild-select thread, which jumps
// into the thread named in metadata once the guild is resolved.
func (d *Dispatcher) openGuildSelect(ctx context.Context, userID, channelID, prompt string, extraMeta map[string]any) error {
	return d.openGuildPickerFlow(ctx, domain.ThreadGuildSelect, userID, channelID, prompt, extraMeta)
}

// sendGuildPicker sends the guild-choice embed and seeds its reactions. A
// nil choices map with a nil error means the user has no guilds and was
// told so.
func (d *Dispatcher) sendGuildPicker(ctx context.Context, userID, channelID, prompt string) (string, map[string]string, error) {
	guilds, err := d.profiles.ListUserGuilds(ctx, userID)
	if err != nil {
		return "", nil, err
	}
	if len(guilds) == 0 {
		_, err := d.msgr.SendMessage(ctx, channelID, noGuildsNotice)
		return "", nil, err
	}

	emojis := threads.PickerEmojis(len(guilds))
	choices := make(map[string]string, len(emojis))
	embed := &ports.Embed{Description: prompt}
	for i, emoji := range emojis {
		choices[emoji] = guilds[i].GuildID
		name := guilds[i].Name
		if name == "" {
			name = guilds[i].GuildID
		}
		embed.Fields = append(embed.Fields, ports.EmbedField{Name: name, Value: emoji})
	}

	msg, err := d.msgr.SendEmbed(ctx, channelID, embed)
	if err != nil {
		return "", nil, err
	}
	for _, emoji := range emojis {
		if err := d.msgr.AddReaction(ctx, msg.ChannelID, msg.ID, emoji); err != nil {
			return "", nil, err
		}
	}
	return msg.ID, choices, nil
}

func (d *Dispatcher) observeStart(key domain.ThreadKey) {
	if d.metrics == nil {
		return
	}
	d.metrics.ThreadsStarted.WithLabelValues(string(key)).Inc()
}
