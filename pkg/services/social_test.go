/*
Copyright © 2026 masteryyh <yyh991013@163.com>

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package services

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/masteryyh/vidtube/pkg/conn"
	"github.com/masteryyh/vidtube/pkg/customerrors"
	"github.com/masteryyh/vidtube/pkg/models"
	"github.com/masteryyh/vidtube/pkg/query"
	"gorm.io/gorm"
)

func TestIsOwner(t *testing.T) {
	owner := uuid.New()
	video := &models.Video{OwnerID: owner}
	if !IsOwner(video, owner) {
		t.Fatal("expected owner to match")
	}
	if IsOwner(video, uuid.New()) {
		t.Fatal("expected stranger not to match")
	}
	if IsOwner(&models.Video{}, uuid.Nil) {
		t.Fatal("expected nil user never to own anything")
	}
}

func TestCommentLifecycle(t *testing.T) {
	f := newFixture(t)
	owner := f.register(t, "carl")
	other := f.register(t, "dina")
	video := f.publish(t, owner.ID, "talk")

	_, err := f.comments.AddComment(f.ctx, other.ID, video.ID, "   ")
	expectKind(t, err, customerrors.KindInvalidInput)
	_, err = f.comments.AddComment(f.ctx, other.ID, uuid.New(), "hello")
	expectErr(t, err, customerrors.ErrVideoNotFound)

	comment, err := f.comments.AddComment(f.ctx, other.ID, video.ID, " hello ")
	if err != nil {
		t.Fatalf("failed to add comment: %v", err)
	}
	if comment.Content != "hello" || comment.Owner.Username != "dina" {
		t.Fatalf("unexpected comment %+v", comment)
	}

	_, err = f.comments.UpdateComment(f.ctx, owner.ID, comment.ID, "hijack")
	expectErr(t, err, customerrors.ErrNotCommentOwner)
	err = f.comments.DeleteComment(f.ctx, owner.ID, comment.ID)
	expectErr(t, err, customerrors.ErrNotCommentOwner)

	updated, err := f.comments.UpdateComment(f.ctx, other.ID, comment.ID, "edited")
	if err != nil {
		t.Fatalf("failed to update comment: %v", err)
	}
	if updated.Content != "edited" {
		t.Fatalf("expected edited content, got %q", updated.Content)
	}

	if _, err := f.likes.ToggleLike(f.ctx, models.LikeTargetComment, comment.ID, owner.ID); err != nil {
		t.Fatalf("failed to like comment: %v", err)
	}
	list, err := f.comments.ListComments(f.ctx, video.ID, other.ID, "1", "10")
	if err != nil {
		t.Fatalf("failed to list comments: %v", err)
	}
	if list.TotalCount != 1 || list.Items[0].LikesCount != 1 {
		t.Fatalf("unexpected comment listing %+v", list)
	}

	if err := f.comments.DeleteComment(f.ctx, other.ID, comment.ID); err != nil {
		t.Fatalf("failed to delete comment: %v", err)
	}
	err = f.comments.DeleteComment(f.ctx, other.ID, comment.ID)
	expectErr(t, err, customerrors.ErrCommentNotFound)
	list, _ = f.comments.ListComments(f.ctx, video.ID, other.ID, "", "")
	if list.TotalCount != 0 {
		t.Fatalf("expected deleted comment to disappear, got %d", list.TotalCount)
	}
}

func TestTweetLifecycle(t *testing.T) {
	f := newFixture(t)
	author := f.register(t, "emil")
	other := f.register(t, "fay")

	tweet, err := f.tweets.CreateTweet(f.ctx, author.ID, "first post")
	if err != nil {
		t.Fatalf("failed to create tweet: %v", err)
	}
	_, err = f.tweets.UpdateTweet(f.ctx, other.ID, tweet.ID, "nope")
	expectErr(t, err, customerrors.ErrNotTweetOwner)
	_, err = f.tweets.UpdateTweet(f.ctx, author.ID, uuid.New(), "nope")
	expectErr(t, err, customerrors.ErrTweetNotFound)

	if _, err := f.tweets.CreateTweet(f.ctx, author.ID, "second post"); err != nil {
		t.Fatalf("failed to create tweet: %v", err)
	}
	list, err := f.tweets.ListUserTweets(f.ctx, author.ID, "", "")
	if err != nil {
		t.Fatalf("failed to list tweets: %v", err)
	}
	if list.TotalCount != 2 || list.Items[0].Content != "second post" {
		t.Fatalf("expected newest tweet first, got %+v", list.Items)
	}

	_, err = f.tweets.ListUserTweets(f.ctx, uuid.New(), "", "")
	expectErr(t, err, customerrors.ErrUserNotFound)

	if err := f.tweets.DeleteTweet(f.ctx, author.ID, tweet.ID); err != nil {
		t.Fatalf("failed to delete tweet: %v", err)
	}
	_, err = f.likes.ToggleLike(f.ctx, models.LikeTargetTweet, tweet.ID, other.ID)
	expectErr(t, err, customerrors.ErrTweetNotFound)
}

func TestToggleLikeFlips(t *testing.T) {
	f := newFixture(t)
	owner := f.register(t, "gus")
	fan := f.register(t, "hana")
	video := f.publish(t, owner.ID, "likeable")

	expected := []bool{true, false, true}
	for i, want := range expected {
		status, err := f.likes.ToggleLike(f.ctx, models.LikeTargetVideo, video.ID, fan.ID)
		if err != nil {
			t.Fatalf("toggle %d failed: %v", i, err)
		}
		if status.Liked != want {
			t.Fatalf("toggle %d: expected liked=%v, got %v", i, want, status.Liked)
		}
	}

	_, err := f.likes.ToggleLike(f.ctx, models.LikeTargetVideo, uuid.New(), fan.ID)
	expectErr(t, err, customerrors.ErrVideoNotFound)

	liked, err := f.likes.ListLikedVideos(f.ctx, fan.ID, "", "")
	if err != nil {
		t.Fatalf("failed to list liked videos: %v", err)
	}
	if liked.TotalCount != 1 || liked.Items[0].Video.ID != video.ID || liked.Items[0].Video.LikesCount != 1 {
		t.Fatalf("unexpected liked videos %+v", liked)
	}
}

func TestSwitchOnAbsorbsDuplicate(t *testing.T) {
	f := newFixture(t)
	owner := f.register(t, "ida")
	fan := f.register(t, "joel")
	video := f.publish(t, owner.ID, "racy")

	for range 2 {
		if err := switchOn(f.ctx, f.db, models.NewLike(models.LikeTargetVideo, video.ID, fan.ID)); err != nil {
			t.Fatalf("expected duplicate create to be absorbed, got %v", err)
		}
	}
	count, _ := gorm.G[models.Like](f.db).Where("video_id = ?", video.ID).Count(f.ctx, "id")
	if count != 1 {
		t.Fatalf("expected exactly one like, got %d", count)
	}
}

func TestConcurrentTogglesConverge(t *testing.T) {
	path := filepath.Join(t.TempDir(), "race.db")
	primary := openSharedFile(t, path)
	if err := conn.Migrate(context.Background(), primary); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	secondary := openSharedFile(t, path)

	f := newFixtureOn(t, primary)
	owner := f.register(t, "lena")
	video := f.publish(t, owner.ID, "contested")

	const fans = 6
	for i := range fans {
		fan := f.register(t, fmt.Sprintf("fan%d", i))
		key := query.And(query.Eq("video_id", video.ID), query.Eq("liked_by", fan.ID))

		var (
			wg      sync.WaitGroup
			results [2]bool
			errs    [2]error
		)
		for n, db := range []*gorm.DB{primary, secondary} {
			wg.Add(1)
			go func() {
				defer wg.Done()
				results[n], errs[n] = toggle(f.ctx, db, key, func() *models.Like {
					return models.NewLike(models.LikeTargetVideo, video.ID, fan.ID)
				})
			}()
		}
		wg.Wait()

		for n, err := range errs {
			if err != nil {
				t.Fatalf("fan %d toggle %d failed: %v", i, n, err)
			}
		}
		count, err := gorm.G[models.Like](primary).Where(key.SQL, key.Args...).Count(f.ctx, "id")
		if err != nil {
			t.Fatalf("failed to count likes: %v", err)
		}
		// Two toggles from "off" either both land on "on" or the second one undoes the first.
		want := int64(0)
		if results[0] && results[1] {
			want = 1
		}
		if !results[0] && !results[1] {
			t.Fatalf("fan %d: two toggles from off cannot both report off", i)
		}
		if count != want {
			t.Fatalf("fan %d: results %v left %d likes, expected %d", i, results, count, want)
		}
	}

	// Racing creates of the same relation leave exactly one row.
	racer := f.register(t, "racer")
	var wg sync.WaitGroup
	errs := make([]error, 8)
	for n := range errs {
		db := primary
		if n%2 == 1 {
			db = secondary
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs[n] = switchOn(f.ctx, db, models.NewLike(models.LikeTargetVideo, video.ID, racer.ID))
		}()
	}
	wg.Wait()
	for n, err := range errs {
		if err != nil {
			t.Fatalf("create %d failed: %v", n, err)
		}
	}
	count, _ := gorm.G[models.Like](primary).Where("video_id = ? AND liked_by = ?", video.ID, racer.ID).Count(f.ctx, "id")
	if count != 1 {
		t.Fatalf("expected exactly one like after racing creates, got %d", count)
	}
}

func TestLikesOnDifferentTargetsAreIndependent(t *testing.T) {
	f := newFixture(t)
	owner := f.register(t, "kim")
	video := f.publish(t, owner.ID, "v")
	tweet, err := f.tweets.CreateTweet(f.ctx, owner.ID, "t")
	if err != nil {
		t.Fatalf("failed to create tweet: %v", err)
	}

	for _, target := range []struct {
		kind models.LikeTarget
		id   uuid.UUID
	}{{models.LikeTargetVideo, video.ID}, {models.LikeTargetTweet, tweet.ID}} {
		status, err := f.likes.ToggleLike(f.ctx, target.kind, target.id, owner.ID)
		if err != nil || !status.Liked {
			t.Fatalf("expected %s like to switch on, got %v %v", target.kind, status, err)
		}
	}
}

func TestPlaylistMembershipRules(t *testing.T) {
	f := newFixture(t)
	a := f.register(t, "lena")
	b := f.register(t, "milo")
	c := f.register(t, "nora")
	video := f.publish(t, b.ID, "borrowed")

	playlist, err := f.playlists.CreatePlaylist(f.ctx, a.ID, &models.CreatePlaylistDto{Name: " mix ", Description: "songs"})
	if err != nil {
		t.Fatalf("failed to create playlist: %v", err)
	}
	if playlist.Name != "mix" {
		t.Fatalf("expected trimmed name, got %q", playlist.Name)
	}

	added, err := f.playlists.AddVideo(f.ctx, a.ID, playlist.ID, video.ID)
	if err != nil {
		t.Fatalf("expected adding another user's video to work, got %v", err)
	}
	if added.VideoCount != 1 {
		t.Fatalf("expected 1 video, got %d", added.VideoCount)
	}

	_, err = f.playlists.AddVideo(f.ctx, a.ID, playlist.ID, video.ID)
	expectErr(t, err, customerrors.ErrVideoAlreadyInList)
	_, err = f.playlists.AddVideo(f.ctx, a.ID, playlist.ID, uuid.New())
	expectErr(t, err, customerrors.ErrVideoNotFound)
	_, err = f.playlists.RemoveVideo(f.ctx, c.ID, playlist.ID, video.ID)
	expectErr(t, err, customerrors.ErrNotPlaylistOwner)
	_, err = f.playlists.AddVideo(f.ctx, c.ID, uuid.New(), video.ID)
	expectErr(t, err, customerrors.ErrPlaylistNotFound)

	removed, err := f.playlists.RemoveVideo(f.ctx, a.ID, playlist.ID, video.ID)
	if err != nil {
		t.Fatalf("failed to remove video: %v", err)
	}
	if removed.VideoCount != 0 {
		t.Fatalf("expected empty playlist, got %d", removed.VideoCount)
	}
	_, err = f.playlists.RemoveVideo(f.ctx, a.ID, playlist.ID, video.ID)
	expectErr(t, err, customerrors.ErrVideoNotInList)
}

func TestPlaylistDetailAndListing(t *testing.T) {
	f := newFixture(t)
	owner := f.register(t, "omar")
	viewer := f.register(t, "pia")
	first := f.publish(t, owner.ID, "one")
	second := f.publish(t, owner.ID, "two")

	playlist, err := f.playlists.CreatePlaylist(f.ctx, owner.ID, &models.CreatePlaylistDto{Name: "set"})
	if err != nil {
		t.Fatalf("failed to create playlist: %v", err)
	}
	for _, v := range []*models.VideoDto{second, first} {
		if _, err := f.playlists.AddVideo(f.ctx, owner.ID, playlist.ID, v.ID); err != nil {
			t.Fatalf("failed to add video: %v", err)
		}
	}
	if _, err := f.videos.TogglePublishStatus(f.ctx, owner.ID, first.ID); err != nil {
		t.Fatalf("failed to unpublish: %v", err)
	}

	detail, err := f.playlists.GetPlaylist(f.ctx, playlist.ID, viewer.ID, "", "")
	if err != nil {
		t.Fatalf("failed to get playlist: %v", err)
	}
	if detail.Videos.TotalCount != 1 || detail.Videos.Items[0].ID != second.ID {
		t.Fatalf("expected only the published video, got %+v", detail.Videos.Items)
	}
	if detail.VideoCount != 1 {
		t.Fatalf("expected the video count to skip the draft, got %d", detail.VideoCount)
	}

	detail, err = f.playlists.GetPlaylist(f.ctx, playlist.ID, owner.ID, "", "")
	if err != nil {
		t.Fatalf("failed to get playlist: %v", err)
	}
	if detail.Videos.TotalCount != 2 || detail.Videos.Items[0].ID != second.ID {
		t.Fatalf("expected insertion order for the owner, got %+v", detail.Videos.Items)
	}

	_, err = f.playlists.UpdatePlaylist(f.ctx, viewer.ID, playlist.ID, &models.UpdatePlaylistDto{Name: "mine"})
	expectErr(t, err, customerrors.ErrNotPlaylistOwner)
	renamed, err := f.playlists.UpdatePlaylist(f.ctx, owner.ID, playlist.ID, &models.UpdatePlaylistDto{Name: "renamed"})
	if err != nil || renamed.Name != "renamed" {
		t.Fatalf("failed to rename playlist: %v", err)
	}

	list, err := f.playlists.ListUserPlaylists(f.ctx, owner.ID, owner.ID, "", "")
	if err != nil {
		t.Fatalf("failed to list playlists: %v", err)
	}
	if list.TotalCount != 1 || list.Items[0].VideoCount != 2 {
		t.Fatalf("unexpected playlists %+v", list.Items)
	}
	list, err = f.playlists.ListUserPlaylists(f.ctx, owner.ID, viewer.ID, "", "")
	if err != nil {
		t.Fatalf("failed to list playlists: %v", err)
	}
	if list.Items[0].VideoCount != 1 {
		t.Fatalf("expected the viewer's count to skip the draft, got %d", list.Items[0].VideoCount)
	}

	if err := f.playlists.DeletePlaylist(f.ctx, owner.ID, playlist.ID); err != nil {
		t.Fatalf("failed to delete playlist: %v", err)
	}
	_, err = f.playlists.GetPlaylist(f.ctx, playlist.ID, owner.ID, "", "")
	expectErr(t, err, customerrors.ErrPlaylistNotFound)
}

func TestSubscriptionToggleAndListings(t *testing.T) {
	f := newFixture(t)
	channel := f.register(t, "rosa")
	fan := f.register(t, "saul")

	_, err := f.subscriptions.ToggleSubscription(f.ctx, fan.ID, fan.ID)
	expectErr(t, err, customerrors.ErrSelfSubscription)
	_, err = f.subscriptions.ToggleSubscription(f.ctx, fan.ID, uuid.New())
	expectErr(t, err, customerrors.ErrChannelNotFound)

	status, err := f.subscriptions.ToggleSubscription(f.ctx, fan.ID, channel.ID)
	if err != nil || !status.Subscribed {
		t.Fatalf("expected subscription, got %v %v", status, err)
	}

	subscribers, err := f.subscriptions.ListSubscribers(f.ctx, channel.ID, "", "")
	if err != nil {
		t.Fatalf("failed to list subscribers: %v", err)
	}
	if subscribers.TotalCount != 1 || subscribers.Items[0].Subscriber.Username != "saul" {
		t.Fatalf("unexpected subscribers %+v", subscribers.Items)
	}

	channels, err := f.subscriptions.ListSubscribedChannels(f.ctx, fan.ID, "", "")
	if err != nil {
		t.Fatalf("failed to list channels: %v", err)
	}
	if channels.TotalCount != 1 || channels.Items[0].Channel.ID != channel.ID || channels.Items[0].SubscribersCount != 1 {
		t.Fatalf("unexpected channels %+v", channels.Items)
	}

	status, err = f.subscriptions.ToggleSubscription(f.ctx, fan.ID, channel.ID)
	if err != nil || status.Subscribed {
		t.Fatalf("expected unsubscribe, got %v %v", status, err)
	}
	subscribers, _ = f.subscriptions.ListSubscribers(f.ctx, channel.ID, "", "")
	if subscribers.TotalCount != 0 {
		t.Fatalf("expected no subscribers, got %d", subscribers.TotalCount)
	}
}
